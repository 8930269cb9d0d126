package attachment

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilesystemStore(t *testing.T) {
	t.Run("creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "receipts")
		_, err := NewFilesystemStore(dir, "/receipts")
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects an empty directory", func(t *testing.T) {
		_, err := NewFilesystemStore("  ", "/receipts")
		assert.Error(t, err)
	})
}

func TestUploadAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystemStore(t.TempDir(), "/receipts/")
	require.NoError(t, err)

	ref, err := store.Upload(ctx, "photo.PNG", strings.NewReader("image data"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"), "extension is kept, lowercased")
	assert.NotContains(t, ref, "photo", "original name must not leak into the reference")

	path, err := store.Path(ref)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image data", string(data))

	assert.Equal(t, "/receipts/"+ref, store.URLFor(ref), "trailing slash in baseURL is normalized")

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, store.Delete(ctx, ref), "deleting a missing file is not an error")
}

func TestUpload_UniqueReferences(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystemStore(t.TempDir(), "/receipts")
	require.NoError(t, err)

	a, err := store.Upload(ctx, "same.png", strings.NewReader("a"), "image/png")
	require.NoError(t, err)
	b, err := store.Upload(ctx, "same.png", strings.NewReader("b"), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPath_RejectsTraversal(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "/receipts")
	require.NoError(t, err)

	for _, ref := range []string{"", "../etc/passwd", "a/b.png", ".hidden"} {
		_, err := store.Path(ref)
		assert.Error(t, err, "reference %q should be rejected", ref)
	}
}
