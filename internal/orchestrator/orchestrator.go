// Package orchestrator sequences a sync run: scan the source directory,
// resolve the target collection, upload new files and trigger parsing.
//
// Scanning happens first so that a missing or invalid directory aborts the
// run before any remote call is made. Collection resolution failures are
// fatal as well. Upload and parse failures are recorded in the Summary and
// never stop the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mschirtzinger/ragsync/internal/inventory"
	"github.com/mschirtzinger/ragsync/internal/parse"
	"github.com/mschirtzinger/ragsync/internal/remote"
	"github.com/mschirtzinger/ragsync/internal/scan"
	"github.com/mschirtzinger/ragsync/internal/upload"
)

// ErrCollection is returned when the target collection can be neither found nor created.
var ErrCollection = errors.New("failed to resolve collection")

// Options configures one run.
type Options struct {
	// Collection is the exact name of the target collection.
	Collection string

	// Dir is the source directory to scan.
	Dir string

	// BatchSize is the maximum number of files per upload request.
	BatchSize int

	// SkipExisting skips files whose name already exists remotely.
	SkipExisting bool

	// NoParse disables the parse trigger after uploading.
	NoParse bool
}

// Orchestrator runs sync operations against one remote client.
type Orchestrator struct {
	client   remote.Client
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// New creates an Orchestrator. If logger is nil, logging is discarded.
func New(client remote.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// SetObserver registers an observer for progress events.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.observer = obs
}

// Run performs a full sync. The returned Summary is never nil.
//
// A non-nil error means the run was aborted: the directory could not be
// scanned, the collection could not be resolved, or ctx was cancelled.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{
		RunID:      uuid.NewString(),
		Collection: opts.Collection,
		Dir:        opts.Dir,
		Upload:     &upload.Stats{},
		StartedAt:  o.now(),
	}
	logger := o.logger.With("run_id", summary.RunID)

	files, err := scan.Scan(ctx, opts.Dir, logger)
	if err != nil {
		return o.abort(summary, fmt.Errorf("failed to scan source directory: %w", err))
	}
	summary.Upload.Total = len(files)
	o.notify(Event{Type: EventRunStarted, RunID: summary.RunID, Files: len(files)})

	if err := ctx.Err(); err != nil {
		return o.abort(summary, fmt.Errorf("run interrupted: %w", err))
	}

	if len(files) == 0 {
		logger.Warn("No supported files found", "dir", opts.Dir)
		summary.NoFiles = true
		return o.finish(summary), nil
	}

	col, err := o.resolveCollection(ctx, logger, opts.Collection)
	if err != nil {
		return o.abort(summary, err)
	}
	summary.CollectionID = col.ID

	inv := inventory.New(o.client, logger)
	up := upload.New(o.client, inv, logger)
	up.OnBatch = func(res upload.BatchResult) {
		o.notify(Event{Type: EventBatchDone, RunID: summary.RunID, Batch: &res})
	}

	stats, err := up.Upload(ctx, col, files, upload.Options{
		BatchSize:    opts.BatchSize,
		SkipExisting: opts.SkipExisting,
	})
	summary.Upload = stats
	if err != nil {
		return o.abort(summary, err)
	}

	if opts.NoParse {
		logger.Info("Automatic parsing disabled")
		summary.ParseSkipped = true
	} else {
		res := parse.New(o.client, inv, logger).Start(ctx, col)
		summary.Parse = &res
		if !res.OK() {
			summary.ParseError = res.Err.Error()
		}
	}

	if err := ctx.Err(); err != nil {
		return o.abort(summary, fmt.Errorf("run interrupted: %w", err))
	}

	o.finish(summary)
	logger.Info("Run complete", "duration", summary.Duration().Round(time.Millisecond))
	return summary, nil
}

// resolveCollection returns the collection named name, creating it when
// the lookup finds nothing. A failed lookup is logged and creation is
// attempted anyway; a failed creation is fatal.
func (o *Orchestrator) resolveCollection(ctx context.Context, logger *slog.Logger, name string) (*remote.Collection, error) {
	logger.Info("Resolving collection", "name", name)

	col, err := o.client.FindCollection(ctx, name)
	switch {
	case err != nil:
		logger.Error("Collection lookup failed", "name", name, "error", err)
	case col != nil:
		logger.Info("Found existing collection", "name", name, "id", col.ID)
		return col, nil
	default:
		logger.Info("Collection not found, creating it", "name", name)
	}

	col, err = o.client.CreateCollection(ctx, remote.CreateCollectionRequest{
		Name:        name,
		Description: "Created by ragsync for " + name,
		ChunkMethod: remote.DefaultChunkMethod,
		Permission:  remote.DefaultPermission,
	})
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrCollection, name, err)
	}
	if col == nil {
		return nil, fmt.Errorf("%w %q: service returned no collection", ErrCollection, name)
	}

	logger.Info("Created collection", "name", name, "id", col.ID)
	return col, nil
}

func (o *Orchestrator) abort(summary *Summary, err error) (*Summary, error) {
	summary.Error = err.Error()
	o.logger.Error("Run aborted", "run_id", summary.RunID, "error", err)
	return o.finish(summary), err
}

func (o *Orchestrator) finish(summary *Summary) *Summary {
	summary.FinishedAt = o.now()
	o.notify(Event{Type: EventRunComplete, RunID: summary.RunID, Summary: summary})
	return summary
}

func (o *Orchestrator) notify(e Event) {
	if o.observer == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = o.now()
	}
	o.observer.Notify(e)
}
