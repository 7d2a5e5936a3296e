package remote

import "context"

// Default values used when ragsync has to create a collection.
const (
	DefaultChunkMethod = "naive"
	DefaultPermission  = "me"
)

// Collection is a remote dataset identified by a unique name.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ChunkMethod string `json:"chunk_method,omitempty"`
	Permission  string `json:"permission,omitempty"`
}

// Document is a document already registered in a collection.
//
// Either name field may be empty when the service returns incomplete
// metadata; ID is always present.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Run         string `json:"run,omitempty"`
}

// UploadDocument is one prepared file inside an upload request.
type UploadDocument struct {
	DisplayName string
	Blob        []byte
}

// Page selects one page of a document listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

// CreateCollectionRequest carries the attributes of a new collection.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ChunkMethod string `json:"chunk_method,omitempty"`
	Permission  string `json:"permission,omitempty"`
}

// Client is the capability set ragsync needs from the remote service.
type Client interface {
	// FindCollection returns the collection whose name equals name exactly,
	// or nil (and no error) when there is none.
	FindCollection(ctx context.Context, name string) (*Collection, error)

	// CreateCollection creates a new collection and returns it.
	CreateCollection(ctx context.Context, req CreateCollectionRequest) (*Collection, error)

	// ListDocuments lists documents in col. A nil page requests the
	// service's unpaginated listing. Implementations that cannot page
	// return an error wrapping ErrPagingUnsupported.
	ListDocuments(ctx context.Context, col *Collection, page *Page) ([]Document, error)

	// UploadDocuments uploads all docs in a single request. The request
	// either succeeds or fails as a whole.
	UploadDocuments(ctx context.Context, col *Collection, docs []UploadDocument) error

	// AsyncParseDocuments submits ids for asynchronous parsing and returns
	// as soon as the submission is accepted.
	AsyncParseDocuments(ctx context.Context, col *Collection, ids []string) error
}
