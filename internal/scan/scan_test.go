package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates each relative path under root with small content.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()

	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("content of "+p), 0644))
	}
}

func names(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestScan_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"readme.md",
		"notes.TXT",
		"sub/report.pdf",
		"sub/deeper/table.xlsx",
		"sub/page.HTM",
		"tool.exe",
		"image.png",
		"noext",
	)

	files, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"readme.md", "notes.TXT", "report.pdf", "table.xlsx", "page.HTM"},
		names(files))
	for _, f := range files {
		assert.NotEqual(t, "tool.exe", f.Name)
		assert.True(t, strings.HasPrefix(f.Path, root))
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "only.exe")

	files, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_NotFound(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestScan_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.md")

	_, err := Scan(context.Background(), filepath.Join(root, "file.md"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotADirectory))
}

func TestFileRead(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.md")

	files, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := files[0].Read()
	require.NoError(t, err)
	assert.Equal(t, "content of a.md", string(data))
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.md", true},
		{"a.DOCX", true},
		{"dir/a.rtf", true},
		{"a.json", true},
		{"a.exe", false},
		{"a", false},
		{"a.md.bak", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupported(tt.path), tt.path)
	}
}

func TestScan_SymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, "a.md", "sub/b.txt")

	link := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.Symlink(target, link))

	files, err := Scan(context.Background(), link, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.md", "b.txt"}, names(files))
	for _, f := range files {
		assert.True(t, strings.HasPrefix(f.Path, link), f.Path)
		_, err := f.Read()
		assert.NoError(t, err)
	}
}

func TestScan_FollowsFileSymlinks(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, "c.md", "d.exe")

	root := t.TempDir()
	writeTree(t, root, "a.md")
	require.NoError(t, os.Symlink(filepath.Join(outside, "c.md"), filepath.Join(root, "c.md")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "d.exe"), filepath.Join(root, "d.exe")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone.md"), filepath.Join(root, "broken.md")))

	files, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.md", "c.md"}, names(files))
}

func TestScan_SkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, "a.md", "locked/b.md")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	files, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, names(files))
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.md")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, err := Scan(ctx, root, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, files)
}
