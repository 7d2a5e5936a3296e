package remote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock implementation of Client.
type MockClient struct {
	mock.Mock
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) FindCollection(ctx context.Context, name string) (*Collection, error) {
	args := m.Called(ctx, name)
	col, _ := args.Get(0).(*Collection)
	return col, args.Error(1)
}

func (m *MockClient) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*Collection, error) {
	args := m.Called(ctx, req)
	col, _ := args.Get(0).(*Collection)
	return col, args.Error(1)
}

func (m *MockClient) ListDocuments(ctx context.Context, col *Collection, page *Page) ([]Document, error) {
	args := m.Called(ctx, col, page)
	docs, _ := args.Get(0).([]Document)
	return docs, args.Error(1)
}

func (m *MockClient) UploadDocuments(ctx context.Context, col *Collection, docs []UploadDocument) error {
	args := m.Called(ctx, col, docs)
	return args.Error(0)
}

func (m *MockClient) AsyncParseDocuments(ctx context.Context, col *Collection, ids []string) error {
	args := m.Called(ctx, col, ids)
	return args.Error(0)
}
