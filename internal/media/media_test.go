// AngelaMos | 2026
// media_test.go

package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encodePNG(t *testing.T, w, h int, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestCompressScalesAndReencodes(t *testing.T) {
	out, err := Compress(encodePNG(t, 3200, 800, 255))
	require.NoError(t, err)
	assert.Equal(t, MaxImageDimension, out.Width)
	assert.Equal(t, 400, out.Height)
	assert.Equal(t, "image/jpeg", out.ContentType)

	out, err = Compress(encodePNG(t, 10, 10, 100))
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 10, out.Width)

	_, err = Compress([]byte("not an image"))
	assert.Error(t, err)
}

func TestUploaderStoresAndDiscards(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "assets"), "/uploads")
	require.NoError(t, err)

	tempDir := filepath.Join(root, "tmp")
	u, err := NewUploader(store, tempDir, 1<<20, discardLogger())
	require.NoError(t, err)

	asset, err := u.UploadImage(t.Context(), fileHeader(t, "a.png", encodePNG(t, 20, 20, 255)), "products")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.ID, "products/"))
	assert.True(t, strings.HasPrefix(asset.URL, "/uploads/products/"))
	assert.FileExists(t, filepath.Join(store.Root(), filepath.FromSlash(asset.ID)))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp spool removed")

	u.Discard(t.Context(), asset, Asset{})
	assert.NoFileExists(t, filepath.Join(store.Root(), filepath.FromSlash(asset.ID)))
}

func TestUploaderRejectsNonImages(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	u, err := NewUploader(store, t.TempDir(), 1<<20, discardLogger())
	require.NoError(t, err)

	_, err = u.UploadImage(t.Context(), fileHeader(t, "notes.txt", []byte("hello world")), "products")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	small, err := NewUploader(store, t.TempDir(), 16, discardLogger())
	require.NoError(t, err)
	_, err = small.UploadImage(t.Context(), fileHeader(t, "big.png", encodePNG(t, 50, 50, 255)), "products")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Put(t.Context(), "../escape.jpg", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}

func TestSweeperRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "upload-old")
	fresh := filepath.Join(dir, "upload-new")
	keep := filepath.Join(dir, keepFile)
	for _, p := range []string{stale, fresh, keep} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(keep, old, old))

	s := NewSweeper(dir, time.Minute, discardLogger())
	assert.Equal(t, 1, s.Sweep())
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, keep)
}

func TestAssetColumns(t *testing.T) {
	var a Asset
	require.NoError(t, a.Scan([]byte(`{"url":"/uploads/x.jpg","id":"x.jpg"}`)))
	assert.Equal(t, "x.jpg", a.ID)
	assert.False(t, a.IsZero())

	var list Assets
	require.NoError(t, list.Scan(nil))
	v, err := Assets(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
