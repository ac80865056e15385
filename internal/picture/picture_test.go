package picture_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/picture"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantErr error
	}{
		{name: "PNG", data: pngBytes, wantExt: ".png"},
		{name: "JPEG", data: jpegBytes, wantExt: ".jpg"},
		{name: "GIF", data: gifBytes, wantExt: ".gif"},
		{name: "Text", data: []byte("definitely not an image"), wantErr: picture.ErrUnsupported},
		{name: "Empty", data: nil, wantErr: picture.ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ext, err := picture.Detect(picture.Upload{Data: tt.data})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestReadUpload_Limit(t *testing.T) {
	_, err := picture.ReadUpload(bytes.NewReader(make([]byte, 11)), "big.png", 10)
	assert.ErrorIs(t, err, picture.ErrTooLarge)

	up, err := picture.ReadUpload(bytes.NewReader(pngBytes), "ok.png", int64(len(pngBytes)))
	require.NoError(t, err)
	assert.Equal(t, "ok.png", up.Filename)
	assert.Equal(t, pngBytes, up.Data)
}

func TestLocal_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := picture.NewLocal(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(ctx, picture.Upload{Filename: "a.png", Data: pngBytes})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rc, err := store.Open(ctx, url)
	require.NoError(t, err)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, pngBytes, got)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, picture.Name(url)))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice and deleting foreign URLs are no-ops.
	assert.NoError(t, store.Delete(ctx, url))
	assert.NoError(t, store.Delete(ctx, "https://cdn.example.com/x.png"))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestLocal_RejectsNonImages(t *testing.T) {
	store, err := picture.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), picture.Upload{Filename: "evil.html", Data: []byte("<html></html>")})
	assert.ErrorIs(t, err, picture.ErrUnsupported)
}

func TestLocal_StaysInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep"), 0o600))

	store, err := picture.NewLocal(dir, "/uploads")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "/uploads/../secret.txt"))

	_, err = os.Stat(secret)
	assert.NoError(t, err)
}
