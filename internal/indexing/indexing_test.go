package indexing

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/csearch/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChunkSplitsIntoBoundedGroups(t *testing.T) {
	items := make([]int, 2500)
	for i := range items {
		items[i] = i
	}
	chunks := chunk(items, 1000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestChunkOfEmptyIsNil(t *testing.T) {
	assert.Nil(t, chunk([]int{}, 10))
}

func TestScanExcludesDotfilesAndDotDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "visible.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "nested.go"), []byte("x"), 0o644))

	ix := &Indexer{cfg: &config.Config{}, log: discardLogger()}
	paths, err := ix.scan(root)
	require.NoError(t, err)

	var rels []string
	for _, p := range paths {
		rel, _ := filepath.Rel(root, p)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"visible.go", "sub/nested.go"}, rels)
}

func TestScanHonorsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "dep.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0o644))

	ix := &Indexer{cfg: &config.Config{ScanExclude: []string{"vendor/**"}}, log: discardLogger()}
	paths, err := ix.scan(root)
	require.NoError(t, err)

	var rels []string
	for _, p := range paths {
		rel, _ := filepath.Rel(root, p)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"main.go"}, rels)
}

func TestScanHonorsIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	ix := &Indexer{cfg: &config.Config{ScanInclude: []string{"*.go"}}, log: discardLogger()}
	paths, err := ix.scan(root)
	require.NoError(t, err)

	var rels []string
	for _, p := range paths {
		rel, _ := filepath.Rel(root, p)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"main.go"}, rels)
}

func TestTruncateToSecondDropsSubSecondPrecision(t *testing.T) {
	t.Parallel()
	withNanos := time.Date(2026, 7, 31, 12, 0, 0, 123456789, time.UTC)
	got := truncateToSecond(withNanos)
	assert.Zero(t, got.Nanosecond())
	assert.True(t, got.Equal(time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)))
}

func TestTruncateToSecondIsIdempotent(t *testing.T) {
	t.Parallel()
	once := truncateToSecond(time.Date(2026, 7, 31, 12, 0, 0, 500000000, time.UTC))
	twice := truncateToSecond(once)
	assert.True(t, once.Equal(twice))
}
