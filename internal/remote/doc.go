// Package remote defines the capability boundary between ragsync and the
// document-repository service it uploads into.
//
// Overview
//
// The core never talks HTTP directly. It depends on the Client interface,
// which exposes exactly the five operations a sync run needs:
//
//	FindCollection       → look up a collection by exact name
//	CreateCollection     → create a collection when none exists
//	ListDocuments        → list documents, paginated or not
//	UploadDocuments      → upload one batch of documents in a single request
//	AsyncParseDocuments  → submit documents for asynchronous parsing
//
// HTTPClient implements Client against a RAGFlow-compatible REST API.
// MockClient is a testify-backed implementation for unit tests.
//
// Paging
//
// ListDocuments accepts an optional *Page. When the service cannot honour
// paging parameters, implementations return an error wrapping
// ErrPagingUnsupported. Callers fall back to a single unpaginated call
// (page == nil) exactly once; they never retry the paged shape.
//
// Timeouts
//
// The core enforces no timeouts of its own. Any deadline lives in the
// client (HTTPClient's Timeout option) or in the caller's context.
package remote
