package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestAllowedExtAndHidden(t *testing.T) {
	assert.True(t, AllowedExt(".PDF"))
	assert.True(t, AllowedExt("heic"))
	assert.True(t, AllowedExt("txt"))
	assert.False(t, AllowedExt(".docx"))
	assert.False(t, AllowedExt(""))

	assert.True(t, IsHidden("/a/.git"))
	assert.True(t, IsHidden(".DS_Store"))
	assert.False(t, IsHidden("/a/b.txt"))
	assert.False(t, IsHidden("."))
}

func TestReadPath(t *testing.T) {
	dir := t.TempDir()
	ing := NewFSIngestor(nil)

	p := filepath.Join(dir, "r.TXT")
	writeFile(t, p, "TOTAL 1.00")
	doc, err := ing.ReadPath(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 1.00", string(doc.Content))
	assert.Equal(t, "txt", doc.NormalizedExt())

	_, err = ing.ReadPath(context.Background(), filepath.Join(dir, "notes.docx"))
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = ing.ReadPath(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)

	ing.MaxBytes = 4
	_, err = ing.ReadPath(context.Background(), p)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "receipt a")
	writeFile(t, filepath.Join(dir, "b.txt"), "receipt a") // same bytes as a.txt
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "receipt c")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden", "d.txt"), "hidden dir")
	writeFile(t, filepath.Join(dir, ".e.txt"), "hidden file")

	var got []string
	stats, err := NewFSIngestor(nil).Walk(context.Background(), dir, func(r FileResult) error {
		require.Empty(t, r.Err)
		got = append(got, filepath.Base(r.Path))
		assert.Equal(t, r.Doc.HashHex(), r.HashHex)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "c.txt"}, got)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(0), stats.Failed)
}

func TestWalk_IncludeHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden", "d.txt"), "hidden dir")

	ing := NewFSIngestor(nil)
	ing.SkipHidden = false
	var n int
	stats, err := ing.Walk(context.Background(), dir, func(FileResult) error { n++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(1), stats.Succeeded)
}

func TestWalk_Errors(t *testing.T) {
	_, err := NewFSIngestor(nil).Walk(context.Background(), "  ", func(FileResult) error { return nil })
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	stop := errors.New("stop")
	_, err = NewFSIngestor(nil).Walk(context.Background(), dir, func(FileResult) error { return stop })
	assert.ErrorIs(t, err, stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFSIngestor(nil).Walk(ctx, dir, func(FileResult) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	var results []FileResult
	stats, err := NewFSIngestor(nil).Walk(context.Background(), filepath.Join(dir, "missing"), func(r FileResult) error {
		results = append(results, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Err)
	assert.Equal(t, uint32(1), stats.Failed)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "watcher closed")
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
		return ""
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.txt")
	writeFile(t, existing, "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := Watch(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	assert.Equal(t, existing, receive(t, paths))

	fresh := filepath.Join(dir, "new.txt")
	writeFile(t, fresh, "new")
	assert.Equal(t, fresh, receive(t, paths))

	cancel()
	for range paths {
	}
}

func TestWatch_NoRoots(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWatch_DirectoryMovedIn(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()
	writeFile(t, filepath.Join(staging, "batch", "a.txt"), "a")
	writeFile(t, filepath.Join(staging, "batch", "nested", "b.pdf"), "b")
	writeFile(t, filepath.Join(staging, "batch", "skip.docx"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := Watch(ctx, WatchConfig{Roots: []string{dir}, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	// a moved-in directory raises one create event and none for its files
	require.NoError(t, os.Rename(filepath.Join(staging, "batch"), filepath.Join(dir, "batch")))

	assert.Equal(t, filepath.Join(dir, "batch", "a.txt"), receive(t, paths))
	assert.Equal(t, filepath.Join(dir, "batch", "nested", "b.pdf"), receive(t, paths))

	// the new directory is watched as well
	fresh := filepath.Join(dir, "batch", "c.txt")
	writeFile(t, fresh, "c")
	assert.Equal(t, fresh, receive(t, paths))

	cancel()
	for range paths {
	}
}
