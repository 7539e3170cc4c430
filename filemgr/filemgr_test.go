package filemgr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	data := pngBytes(t, 10, 10)

	mime, err := Validate("id.png", int64(len(data)), data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = Validate("id.exe", int64(len(data)), data)
	assert.ErrorIs(t, err, ErrInvalidExtension)

	_, err = Validate("id.jpg", 20, []byte("just some plain text"))
	assert.ErrorIs(t, err, ErrInvalidMIME)

	_, err = Validate("id.png", MaxUploadSize+1, data)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = Validate("id.png", 0, nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLocalHostUpload(t *testing.T) {
	dir := t.TempDir()
	host := NewLocalHost(dir, "/static/uploads/")
	host.newName = func() string { return "Fixed Name" }
	var saved []string
	host.LogFunc = func(path string, size int64, mimeType string) {
		saved = append(saved, filepath.Base(path)+" "+mimeType)
	}

	up, err := host.Upload(context.Background(), "My ID.PNG", pngBytes(t, 600, 400))
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/fixed_name.png", up.URL)
	assert.Equal(t, "/static/uploads/thumb/fixed_name.jpg", up.ThumbURL)
	assert.Equal(t, 600, up.Width)
	assert.Equal(t, 400, up.Height)
	assert.Equal(t, "png", up.Format)
	assert.Positive(t, up.Bytes)
	assert.Equal(t, []string{"fixed_name.png image/png", "fixed_name.jpg image/jpeg"}, saved)

	f, err := os.Open(filepath.Join(dir, "thumb", "fixed_name.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, ThumbWidth, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestLocalHostRejects(t *testing.T) {
	host := NewLocalHost(t.TempDir(), "/u")

	_, err := host.Upload(context.Background(), "id.gif", []byte("GIF89a not really a gif"))
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.True(t, IsClientError(err))

	_, err = host.Upload(context.Background(), "notes.txt", []byte(strings.Repeat("x", 20)))
	assert.ErrorIs(t, err, ErrInvalidExtension)
}
