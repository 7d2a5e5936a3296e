// Package inventory reconciles the remote document listing into a
// name-keyed map used to skip files that were already uploaded.
package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mschirtzinger/ragsync/internal/remote"
)

const (
	// PageSize is the number of documents requested per listing page.
	PageSize = 50

	// MaxPages bounds pagination against a service that never returns a
	// short page.
	MaxPages = 1000

	// nameListLimit caps how many existing names are logged individually.
	nameListLimit = 20
)

// Reconciler pages through a collection's documents.
type Reconciler struct {
	client   remote.Client
	logger   *slog.Logger
	pageSize int
	maxPages int
}

// New creates a Reconciler. If logger is nil, logging is discarded.
func New(client remote.Client, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		client:   client,
		logger:   logger,
		pageSize: PageSize,
		maxPages: MaxPages,
	}
}

// DocumentKey returns the name a remote document is deduplicated under:
// its name, else its display name, else a placeholder derived from its ID.
func DocumentKey(doc remote.Document) string {
	switch {
	case doc.Name != "":
		return doc.Name
	case doc.DisplayName != "":
		return doc.DisplayName
	default:
		return "unknown_" + doc.ID
	}
}

// List returns every document in col.
//
// Pages of PageSize are requested from page 1 until an empty or short page
// arrives. If the client reports that paging is unsupported, a single
// unpaginated listing replaces the paged walk. After MaxPages pages a
// warning is logged and the documents gathered so far are returned.
func (r *Reconciler) List(ctx context.Context, col *remote.Collection) ([]remote.Document, error) {
	var all []remote.Document

	for page := 1; ; page++ {
		r.logger.Debug("Fetching document page", "page", page, "page_size", r.pageSize)

		docs, err := r.client.ListDocuments(ctx, col, &remote.Page{Number: page, Size: r.pageSize})
		if err != nil {
			if !remote.IsCapabilityMismatch(err) {
				return nil, fmt.Errorf("failed to list documents (page %d): %w", page, err)
			}
			r.logger.Debug("Listing does not support paging, fetching all documents at once")
			docs, err = r.client.ListDocuments(ctx, col, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to list documents: %w", err)
			}
			return docs, nil
		}

		if len(docs) == 0 {
			r.logger.Debug("Empty page, listing complete", "page", page)
			break
		}
		all = append(all, docs...)

		if len(docs) < r.pageSize {
			r.logger.Debug("Short page, listing complete", "page", page, "count", len(docs))
			break
		}
		if page >= r.maxPages {
			r.logger.Warn("Reached page limit, stopping listing", "max_pages", r.maxPages)
			break
		}
	}

	return all, nil
}

// Existing returns the documents in col keyed by DocumentKey. When two
// documents share a key, the one listed last wins.
//
// Reconciliation is best-effort: on any listing error the error is logged
// and an empty map is returned, so every local file gets uploaded.
func (r *Reconciler) Existing(ctx context.Context, col *remote.Collection) map[string]remote.Document {
	r.logger.Info("Fetching existing documents", "collection", col.Name)

	docs, err := r.List(ctx, col)
	if err != nil {
		r.logger.Error("Failed to fetch existing documents", "error", err)
		return map[string]remote.Document{}
	}

	existing := make(map[string]remote.Document, len(docs))
	for _, doc := range docs {
		key := DocumentKey(doc)
		existing[key] = doc
		r.logger.Debug("Existing document", "name", key, "id", doc.ID)
	}

	r.logger.Info("Fetched existing documents", "count", len(existing))
	if len(existing) <= nameListLimit {
		for name := range existing {
			r.logger.Info("Existing document", "name", name)
		}
	} else {
		r.logger.Info("Too many existing documents to list individually", "count", len(existing))
	}

	return existing
}
