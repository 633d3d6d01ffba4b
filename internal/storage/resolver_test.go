package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/brandportal/internal/storage"
)

func writeFile(t *testing.T, root, rel string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	return p
}

func TestResolveCurrentFormat(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "uploads/resources/academic/abc.pdf")
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	for _, stored := range []string{
		"/uploads/resources/academic/abc.pdf",
		"uploads/resources/academic/abc.pdf",
	} {
		got, err := r.Resolve(stored, "academic")
		require.NoError(t, err, stored)
		assert.Equal(t, want, got)
	}
}

func TestResolveMissingUploadsPrefix(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "uploads/resources/marketing/flyer.png")
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("/resources/marketing/flyer.png", "marketing")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveByCategoryDirectory(t *testing.T) {
	root := t.TempDir()
	want := writeFile(t, root, "uploads/resources/training/guide.pdf")
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("/legacy/location/guide.pdf", "training")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolvePrefersFirstCandidate(t *testing.T) {
	root := t.TempDir()
	first := writeFile(t, root, "docs/a.pdf")
	writeFile(t, root, "uploads/docs/a.pdf")
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("docs/a.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestResolveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "uploads/resources/event/x.jpg")
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	a, err := r.Resolve("resources/event/x.jpg", "event")
	require.NoError(t, err)
	b, err := r.Resolve("resources/event/x.jpg", "event")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveNotFound(t *testing.T) {
	r, err := storage.NewResolver(t.TempDir())
	require.NoError(t, err)

	_, err = r.Resolve("/uploads/resources/academic/missing.pdf", "academic")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = r.Resolve("", "academic")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolveIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads", "dir.pdf"), 0755))
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	_, err = r.Resolve("dir.pdf", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidatesStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	for _, c := range r.Candidates("../../etc/passwd", "../..") {
		rel, err := filepath.Rel(r.Root(), c)
		require.NoError(t, err)
		assert.NotContains(t, filepath.ToSlash(rel), "../", c)
	}
}

func TestCandidatesOrder(t *testing.T) {
	root := t.TempDir()
	r, err := storage.NewResolver(root)
	require.NoError(t, err)

	got := r.Candidates("/resources/academic/a.pdf", "academic")
	assert.Equal(t, []string{
		filepath.Join(r.Root(), "resources", "academic", "a.pdf"),
		filepath.Join(r.Root(), "uploads", "resources", "academic", "a.pdf"),
	}, got)

	got = r.Candidates("uploads/x/a.pdf", "")
	assert.Equal(t, []string{filepath.Join(r.Root(), "uploads", "x", "a.pdf")}, got)
}
