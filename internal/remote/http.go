package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API result code for malformed or unknown arguments.
const codeArgumentError = 101

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. http://localhost:9380.
	BaseURL string

	// APIKey is sent as a bearer token on every request.
	APIKey string

	// Timeout bounds each HTTP round-trip. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// HTTPClient implements Client against a RAGFlow-compatible REST API.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// envelope is the JSON wrapper around every API response.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewHTTPClient validates config and returns a ready client.
func NewHTTPClient(config HTTPConfig) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	u, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", config.BaseURL)
	}

	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: config.Timeout}
	}

	return &HTTPClient{
		baseURL: u,
		apiKey:  config.APIKey,
		http:    hc,
	}, nil
}

// FindCollection implements Client.FindCollection.
func (c *HTTPClient) FindCollection(ctx context.Context, name string) (*Collection, error) {
	query := url.Values{"name": {name}}

	var cols []Collection
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/v1/datasets", query, nil, &cols); err != nil {
		return nil, fmt.Errorf("failed to look up collection %q: %w", name, err)
	}

	// The name filter may be fuzzy on some deployments; require an exact match.
	for i := range cols {
		if cols[i].Name == name {
			return &cols[i], nil
		}
	}
	return nil, nil
}

// CreateCollection implements Client.CreateCollection.
func (c *HTTPClient) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*Collection, error) {
	var col Collection
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/v1/datasets", nil, req, &col); err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", req.Name, err)
	}
	return &col, nil
}

// ListDocuments implements Client.ListDocuments.
func (c *HTTPClient) ListDocuments(ctx context.Context, col *Collection, page *Page) ([]Document, error) {
	var query url.Values
	if page != nil {
		query = url.Values{
			"page":      {strconv.Itoa(page.Number)},
			"page_size": {strconv.Itoa(page.Size)},
		}
	}

	var data struct {
		Docs  []Document `json:"docs"`
		Total int        `json:"total"`
	}
	status, err := c.doJSON(ctx, http.MethodGet, c.documentsPath(col), query, nil, &data)
	if err != nil {
		if page != nil && rejectsPaging(status, err) {
			return nil, fmt.Errorf("%w: %v", ErrPagingUnsupported, err)
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return data.Docs, nil
}

// rejectsPaging reports whether a failed paged listing was refused because
// of its paging parameters rather than its data.
func rejectsPaging(status int, err error) bool {
	if status == http.StatusMethodNotAllowed {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeArgumentError && strings.Contains(strings.ToLower(apiErr.Message), "page")
}

// UploadDocuments implements Client.UploadDocuments.
func (c *HTTPClient) UploadDocuments(ctx context.Context, col *Collection, docs []UploadDocument) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, doc := range docs {
		part, err := mw.CreateFormFile("file", doc.DisplayName)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", doc.DisplayName, err)
		}
		if _, err := part.Write(doc.Blob); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", doc.DisplayName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload body: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, c.documentsPath(col), nil, &body, mw.FormDataContentType(), nil); err != nil {
		return fmt.Errorf("failed to upload %d documents: %w", len(docs), err)
	}
	return nil
}

// AsyncParseDocuments implements Client.AsyncParseDocuments.
func (c *HTTPClient) AsyncParseDocuments(ctx context.Context, col *Collection, ids []string) error {
	req := struct {
		DocumentIDs []string `json:"document_ids"`
	}{DocumentIDs: ids}

	path := "/api/v1/datasets/" + url.PathEscape(col.ID) + "/chunks"
	if _, err := c.doJSON(ctx, http.MethodPost, path, nil, req, nil); err != nil {
		return fmt.Errorf("failed to start parsing %d documents: %w", len(ids), err)
	}
	return nil
}

func (c *HTTPClient) documentsPath(col *Collection) string {
	return "/api/v1/datasets/" + url.PathEscape(col.ID) + "/documents"
}

// doJSON sends an optional JSON body and decodes the envelope data into out.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, body, contentType, out)
}

// do performs one round-trip and returns the HTTP status alongside any error.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) (int, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return resp.StatusCode, &APIError{Status: resp.StatusCode, Code: -1, Message: strings.TrimSpace(string(raw))}
		}
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || env.Code != 0 {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
