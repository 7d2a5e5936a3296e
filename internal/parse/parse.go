// Package parse submits a collection's documents for asynchronous
// processing on the remote service.
package parse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mschirtzinger/ragsync/internal/remote"
)

// Lister returns every document in a collection.
type Lister interface {
	List(ctx context.Context, col *remote.Collection) ([]remote.Document, error)
}

// Result describes a parse submission.
type Result struct {
	// Submitted is the number of document IDs sent for parsing.
	Submitted int `json:"submitted" yaml:"submitted"`

	// NothingToParse is set when the collection held no documents.
	NothingToParse bool `json:"nothing_to_parse,omitempty" yaml:"nothing_to_parse,omitempty"`

	// Err is the listing or submission failure, if any.
	Err error `json:"-" yaml:"-"`
}

// OK reports whether the submission succeeded or there was nothing to do.
func (r Result) OK() bool {
	return r.Err == nil
}

// Trigger starts remote parsing for all documents of a collection.
type Trigger struct {
	client remote.Client
	lister Lister
	logger *slog.Logger
}

// New creates a Trigger. If logger is nil, logging is discarded.
func New(client remote.Client, lister Lister, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Trigger{client: client, lister: lister, logger: logger}
}

// Start lists every document in col and submits all their IDs in one
// asynchronous parse request. It does not wait for parsing to finish.
// Failures are reported in the Result, never returned.
func (t *Trigger) Start(ctx context.Context, col *remote.Collection) Result {
	t.logger.Info("Starting document parsing", "collection", col.Name)

	docs, err := t.lister.List(ctx, col)
	if err != nil {
		err = fmt.Errorf("failed to list documents for parsing: %w", err)
		t.logger.Error("Failed to start parsing", "error", err)
		return Result{Err: err}
	}

	if len(docs) == 0 {
		t.logger.Warn("No documents to parse")
		return Result{NothingToParse: true}
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
		t.logger.Debug("Queued for parsing", "name", doc.Name, "id", doc.ID)
	}

	t.logger.Info("Submitting documents for parsing", "count", len(ids))
	if err := t.client.AsyncParseDocuments(ctx, col, ids); err != nil {
		err = fmt.Errorf("failed to submit %d documents for parsing: %w", len(ids), err)
		t.logger.Error("Failed to start parsing", "error", err)
		return Result{Err: err}
	}

	t.logger.Info("Parsing started", "count", len(ids))
	return Result{Submitted: len(ids)}
}
