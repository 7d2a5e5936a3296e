package remote

import (
	"errors"
	"fmt"
)

// ErrPagingUnsupported is returned by ListDocuments when the service does
// not accept paging parameters. It is a capability mismatch, not a data
// error, and callers may switch to an unpaginated listing:
//
//	if errors.Is(err, remote.ErrPagingUnsupported) {
//	    docs, err = client.ListDocuments(ctx, col, nil)
//	}
var ErrPagingUnsupported = errors.New("document listing does not support paging")

// APIError is a non-success response from the remote service.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Code is the service's own result code (0 means success).
	Code int

	// Message is the service's error message, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: http %d, code %d", e.Status, e.Code)
	}
	return fmt.Sprintf("remote error: http %d, code %d: %s", e.Status, e.Code, e.Message)
}

// IsCapabilityMismatch reports whether err signals that the service does
// not support the requested call shape.
func IsCapabilityMismatch(err error) bool {
	return errors.Is(err, ErrPagingUnsupported)
}
