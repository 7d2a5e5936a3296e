// Package upload pushes local files into a remote collection in bounded
// batches.
//
// Each batch is read file by file and sent as one upload request. A file
// that cannot be read is dropped from its batch and recorded as failed. A
// failed upload request marks every file of that batch as failed, and the
// next batch is attempted regardless. Nothing is retried.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mschirtzinger/ragsync/internal/remote"
	"github.com/mschirtzinger/ragsync/internal/scan"
)

// DefaultBatchSize is the number of files sent per upload request.
const DefaultBatchSize = 5

// Inventory reports which documents already exist in a collection.
type Inventory interface {
	Existing(ctx context.Context, col *remote.Collection) map[string]remote.Document
}

// Options controls a single upload run.
type Options struct {
	// BatchSize is the maximum number of files per upload request.
	BatchSize int

	// SkipExisting skips files whose name matches an existing document.
	SkipExisting bool
}

// Uploader uploads files batch by batch.
type Uploader struct {
	client    remote.Client
	inventory Inventory
	logger    *slog.Logger

	// OnBatch, if set, is called after each batch completes.
	OnBatch func(BatchResult)
}

// New creates an Uploader. If logger is nil, logging is discarded.
func New(client remote.Client, inventory Inventory, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		client:    client,
		inventory: inventory,
		logger:    logger,
	}
}

// Upload sends files to col and returns the run statistics.
//
// The returned error is non-nil only when ctx is cancelled between
// batches; the statistics gathered up to that point are still returned.
func (u *Uploader) Upload(ctx context.Context, col *remote.Collection, files []scan.File, opts Options) (*Stats, error) {
	start := time.Now()
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}

	stats := &Stats{Total: len(files)}
	u.logger.Info("Starting upload",
		"files", len(files), "batch_size", opts.BatchSize, "skip_existing", opts.SkipExisting)

	pending := files
	if opts.SkipExisting {
		pending = u.skipExisting(ctx, col, files, stats)
	}
	stats.Attempted = len(pending)

	if len(pending) == 0 {
		u.logger.Info("No new files to upload")
		stats.Elapsed = time.Since(start)
		return stats, nil
	}

	for i, batch := range Partition(pending, opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, fmt.Errorf("upload interrupted before batch %d: %w", i+1, err)
		}

		res := u.uploadBatch(ctx, col, i+1, batch)
		stats.add(res)
		if u.OnBatch != nil {
			u.OnBatch(res)
		}
	}

	stats.Elapsed = time.Since(start)
	u.logSummary(stats)
	return stats, nil
}

// skipExisting removes files whose base name is already a document key in col.
func (u *Uploader) skipExisting(ctx context.Context, col *remote.Collection, files []scan.File, stats *Stats) []scan.File {
	existing := u.inventory.Existing(ctx, col)
	if len(existing) > 0 {
		u.logger.Info("Skipping files that already exist", "existing", len(existing))
	}

	pending := make([]scan.File, 0, len(files))
	for _, f := range files {
		if _, ok := existing[f.Name]; ok {
			stats.Skipped++
			stats.SkippedFiles = append(stats.SkippedFiles, f.Path)
			u.logger.Info("Skipping existing file", "name", f.Name)
			continue
		}
		pending = append(pending, f)
	}

	if stats.Skipped > 0 {
		u.logger.Info("Skipped existing files", "skipped", stats.Skipped, "remaining", len(pending))
	}
	return pending
}

// uploadBatch reads each file of batch and uploads the readable ones in one request.
func (u *Uploader) uploadBatch(ctx context.Context, col *remote.Collection, number int, batch []scan.File) BatchResult {
	res := BatchResult{Number: number, Size: len(batch)}
	u.logger.Info("Processing batch", "batch", number, "files", len(batch))

	docs := make([]remote.UploadDocument, 0, len(batch))
	ready := make([]scan.File, 0, len(batch))
	for _, f := range batch {
		data, err := f.Read()
		if err != nil {
			u.logger.Error("Failed to read file", "path", f.Path, "error", err)
			res.Failed = append(res.Failed, FailedFile{Path: f.Path, Name: f.Name, Reason: err.Error()})
			continue
		}
		docs = append(docs, remote.UploadDocument{DisplayName: f.Name, Blob: data})
		ready = append(ready, f)
		u.logger.Debug("File ready", "name", f.Name, "size_mb", fmt.Sprintf("%.2f", float64(len(data))/(1024*1024)))
	}

	if len(docs) == 0 {
		u.logger.Warn("Batch has no readable files", "batch", number)
		return res
	}

	callStart := time.Now()
	err := u.client.UploadDocuments(ctx, col, docs)
	res.Duration = time.Since(callStart)

	if err != nil {
		res.Err = err
		u.logger.Error("Batch upload failed", "batch", number, "error", err)
		for _, f := range ready {
			res.Failed = append(res.Failed, FailedFile{Path: f.Path, Name: f.Name, Reason: err.Error()})
			u.logger.Error("File upload failed", "name", f.Name)
		}
		return res
	}

	res.Uploaded = ready
	for _, f := range ready {
		u.logger.Info("File uploaded", "name", f.Name)
	}
	u.logger.Info("Batch uploaded", "batch", number, "files", len(ready),
		"duration", res.Duration.Round(time.Millisecond))
	return res
}

func (u *Uploader) logSummary(stats *Stats) {
	rule := strings.Repeat("=", 50)
	u.logger.Info(rule)
	u.logger.Info("Upload complete",
		"total", stats.Total,
		"skipped", stats.Skipped,
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed(),
		"elapsed", stats.Elapsed.Round(time.Millisecond),
		"avg_per_file", stats.AveragePerFile().Round(time.Millisecond))
	u.logger.Info(rule)

	for _, f := range stats.FailedFiles {
		u.logger.Error("Failed file", "path", f.Path, "reason", f.Reason)
	}
	for _, p := range stats.SkippedFiles {
		u.logger.Info("Skipped file", "path", p)
	}
}
