// Package logging builds the run logger: a console sink at INFO and a
// rotating file sink at DEBUG.
//
// The file sink is a lumberjack writer, so the run log is rotated by size,
// pruned by age and compressed on rotation.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty means DefaultFileName(time.Now()).
	File string

	// Console receives INFO and above. Nil means os.Stderr.
	Console io.Writer

	// ConsoleLevel overrides the console threshold (default INFO).
	ConsoleLevel slog.Level

	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int

	// MaxAgeDays is how long rotated files are retained.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// DefaultOptions returns the rotation policy used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxSizeMB:  10,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// DefaultFileName returns a timestamped log file name for a run started at t.
func DefaultFileName(t time.Time) string {
	return fmt.Sprintf("ragsync_%s.log", t.Format("20060102_150405"))
}

// New returns a logger writing to the console and to a rotating file, plus
// the file path actually used and a closer for the file sink.
func New(opts Options) (*slog.Logger, string, io.Closer, error) {
	path := opts.File
	if path == "" {
		path = DefaultFileName(time.Now())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, "", nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	file := &lumberjack.Logger{
		Filename: path,
		MaxSize:  opts.MaxSizeMB,
		MaxAge:   opts.MaxAgeDays,
		Compress: opts.Compress,
	}

	handler := Fanout(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: opts.ConsoleLevel}),
		slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}),
	)
	return slog.New(handler), path, file, nil
}

// fanout dispatches every record to all handlers that accept its level.
type fanout struct {
	handlers []slog.Handler
}

// Fanout returns a handler that forwards records to each of handlers.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return &fanout{handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
