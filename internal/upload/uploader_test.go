package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mschirtzinger/ragsync/internal/remote"
	"github.com/mschirtzinger/ragsync/internal/scan"
)

var testCollection = &remote.Collection{ID: "ds-1", Name: "docs"}

// recordingClient records upload calls and fails the ones listed in failCalls (1-based).
type recordingClient struct {
	remote.Client
	calls     [][]remote.UploadDocument
	failCalls map[int]bool
}

func (c *recordingClient) UploadDocuments(ctx context.Context, col *remote.Collection, docs []remote.UploadDocument) error {
	c.calls = append(c.calls, docs)
	if c.failCalls[len(c.calls)] {
		return fmt.Errorf("upload call %d: %w", len(c.calls), assert.AnError)
	}
	return nil
}

// staticInventory returns a fixed set of existing documents.
type staticInventory map[string]remote.Document

func (s staticInventory) Existing(ctx context.Context, col *remote.Collection) map[string]remote.Document {
	return s
}

// createFiles writes n files named f<i>.md under a temp dir.
func createFiles(t *testing.T, n int) []scan.File {
	t.Helper()

	dir := t.TempDir()
	files := make([]scan.File, n)
	for i := range files {
		name := fmt.Sprintf("f%d.md", i)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("# "+name), 0644))
		files[i] = scan.File{Path: path, Name: name}
	}
	return files
}

func assertInvariants(t *testing.T, stats *Stats) {
	t.Helper()

	assert.Equal(t, stats.Attempted, stats.Succeeded+stats.Failed(), "succeeded + failed == attempted")
	assert.Equal(t, stats.Total, stats.Attempted+stats.Skipped, "attempted + skipped == total")
}

func TestPartition(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for b := 1; b <= 6; b++ {
			files := make([]scan.File, n)
			for i := range files {
				files[i] = scan.File{Name: fmt.Sprint(i)}
			}

			batches := Partition(files, b)

			wantBatches := (n + b - 1) / b
			require.Len(t, batches, wantBatches, "n=%d b=%d", n, b)
			if n == 0 {
				continue
			}
			wantLast := n % b
			if wantLast == 0 {
				wantLast = b
			}
			assert.Len(t, batches[len(batches)-1], wantLast, "n=%d b=%d", n, b)

			var flat []scan.File
			for _, batch := range batches {
				assert.LessOrEqual(t, len(batch), b)
				flat = append(flat, batch...)
			}
			assert.Equal(t, files, flat, "order preserved")
		}
	}
}

func TestPartition_NonPositiveSize(t *testing.T) {
	batches := Partition(make([]scan.File, 3), 0)
	assert.Len(t, batches, 3)
}

func TestUpload_SevenFilesBatchFive(t *testing.T) {
	client := &recordingClient{}
	files := createFiles(t, 7)

	stats, err := New(client, staticInventory{}, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5})
	require.NoError(t, err)

	require.Len(t, client.calls, 2)
	assert.Len(t, client.calls[0], 5)
	assert.Len(t, client.calls[1], 2)
	assert.Equal(t, "f0.md", client.calls[0][0].DisplayName)
	assert.Equal(t, "# f0.md", string(client.calls[0][0].Blob))

	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 7, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed())
	assert.Equal(t, 2, stats.Batches)
	assertInvariants(t, stats)
}

func TestUpload_FailedBatchIsIsolated(t *testing.T) {
	client := &recordingClient{failCalls: map[int]bool{2: true}}
	files := createFiles(t, 9)

	var results []BatchResult
	u := New(client, staticInventory{}, nil)
	u.OnBatch = func(res BatchResult) { results = append(results, res) }

	stats, err := u.Upload(context.Background(), testCollection, files, Options{BatchSize: 3})
	require.NoError(t, err)

	assert.Len(t, client.calls, 3)
	assert.Equal(t, 6, stats.Succeeded)
	require.Equal(t, 3, stats.Failed())
	for i, f := range stats.FailedFiles {
		assert.Equal(t, files[3+i].Path, f.Path)
		assert.Contains(t, f.Reason, assert.AnError.Error())
	}
	assertInvariants(t, stats)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, assert.AnError)
	assert.True(t, results[2].OK())
}

func TestUpload_UnreadableFileDoesNotAbortBatch(t *testing.T) {
	client := &recordingClient{}
	files := createFiles(t, 5)
	files[2].Path = filepath.Join(t.TempDir(), "gone.md")

	stats, err := New(client, staticInventory{}, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5})
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	assert.Len(t, client.calls[0], 4)
	assert.Equal(t, 4, stats.Succeeded)
	require.Equal(t, 1, stats.Failed())
	assert.Equal(t, files[2].Path, stats.FailedFiles[0].Path)
	assertInvariants(t, stats)
}

func TestUpload_BatchWithNoReadableFilesMakesNoCall(t *testing.T) {
	client := &recordingClient{}
	missing := t.TempDir()
	files := []scan.File{
		{Path: filepath.Join(missing, "a.md"), Name: "a.md"},
		{Path: filepath.Join(missing, "b.md"), Name: "b.md"},
	}

	stats, err := New(client, staticInventory{}, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5})
	require.NoError(t, err)

	assert.Empty(t, client.calls)
	assert.Equal(t, 2, stats.Failed())
	assertInvariants(t, stats)
}

func TestUpload_SkipExistingMatchesByNameOnly(t *testing.T) {
	client := &recordingClient{}
	files := createFiles(t, 4)
	inventory := staticInventory{
		"f1.md":    {ID: "1", Name: "f1.md"},
		"f3.md":    {ID: "3", Name: "f3.md"},
		"other.md": {ID: "9", Name: "other.md"},
	}

	stats, err := New(client, inventory, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5, SkipExisting: true})
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	var uploaded []string
	for _, doc := range client.calls[0] {
		uploaded = append(uploaded, doc.DisplayName)
	}
	assert.Equal(t, []string{"f0.md", "f2.md"}, uploaded)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, []string{files[1].Path, files[3].Path}, stats.SkippedFiles)
	assertInvariants(t, stats)
}

func TestUpload_SkipExistingDisabledIgnoresInventory(t *testing.T) {
	client := &recordingClient{}
	files := createFiles(t, 2)
	inventory := staticInventory{"f0.md": {ID: "0"}}

	stats, err := New(client, inventory, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 2, stats.Succeeded)
}

func TestUpload_NothingToUpload(t *testing.T) {
	client := remote.NewMockClient()
	files := createFiles(t, 2)
	inventory := staticInventory{"f0.md": {ID: "0"}, "f1.md": {ID: "1"}}

	stats, err := New(client, inventory, nil).Upload(context.Background(), testCollection, files, Options{BatchSize: 5, SkipExisting: true})
	require.NoError(t, err)

	client.AssertNotCalled(t, "UploadDocuments", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Attempted)
	assert.Equal(t, 0, stats.Batches)
	assertInvariants(t, stats)
}

func TestUpload_EmptyInput(t *testing.T) {
	stats, err := New(&recordingClient{}, staticInventory{}, nil).Upload(context.Background(), testCollection, nil, Options{BatchSize: 5})
	require.NoError(t, err)
	assert.Equal(t, Stats{Elapsed: stats.Elapsed}, *stats)
}

func TestUpload_CancelledContextStops(t *testing.T) {
	client := &recordingClient{}
	files := createFiles(t, 6)

	ctx, cancel := context.WithCancel(context.Background())
	u := New(client, staticInventory{}, nil)
	u.OnBatch = func(BatchResult) { cancel() }

	stats, err := u.Upload(ctx, testCollection, files, Options{BatchSize: 2})
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, client.calls, 1)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Batches)
}

func TestUpload_MockClientSingleCall(t *testing.T) {
	ctx := context.Background()
	client := remote.NewMockClient()
	files := createFiles(t, 2)
	client.On("UploadDocuments", ctx, testCollection, mock.MatchedBy(func(docs []remote.UploadDocument) bool {
		return len(docs) == 2 && docs[0].DisplayName == "f0.md" && docs[1].DisplayName == "f1.md"
	})).Return(nil).Once()

	stats, err := New(client, staticInventory{}, nil).Upload(ctx, testCollection, files, Options{BatchSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Succeeded)
	client.AssertExpectations(t)
}

func TestStats_AveragePerFile(t *testing.T) {
	s := &Stats{}
	assert.Zero(t, s.AveragePerFile())

	s = &Stats{Attempted: 4, Elapsed: 8}
	assert.EqualValues(t, 2, s.AveragePerFile())
}
