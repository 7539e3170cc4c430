package filemgr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// Uploader stores an image and reports where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (Upload, error)
}

// LocalHost writes images under Dir and serves them from BaseURL. Every
// image is decoded and re-encoded, which drops EXIF and other metadata.
type LocalHost struct {
	Dir     string
	BaseURL string
	// LogFunc is told about every file written, original and thumbnail.
	LogFunc func(path string, size int64, mimeType string)
	newName func() string
}

func NewLocalHost(dir, baseURL string) *LocalHost {
	return &LocalHost{
		Dir:     dir,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		LogFunc: func(path string, size int64, mimeType string) {
			log.Printf("[filemgr] saved %s (%d bytes, %s)", path, size, mimeType)
		},
		newName: func() string { return uuid.New().String() },
	}
}

// outputFormat keeps PNG and GIF as they are; everything else is stored as
// JPEG since imaging has no WebP encoder.
func outputFormat(mimeType string) (imaging.Format, string) {
	switch mimeType {
	case "image/png":
		return imaging.PNG, ".png"
	case "image/gif":
		return imaging.GIF, ".gif"
	default:
		return imaging.JPEG, ".jpg"
	}
}

func (h *LocalHost) Upload(ctx context.Context, name string, data []byte) (Upload, error) {
	var up Upload
	mimeType, err := Validate(name, int64(len(data)), data)
	if err != nil {
		return up, err
	}
	if err := ctx.Err(); err != nil {
		return up, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return up, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	format, ext := outputFormat(mimeType)
	base := ensureSafeFilename(h.newName(), "")
	full := filepath.Join(h.Dir, base+ext)
	thumb := filepath.Join(h.Dir, "thumb", base+".jpg")
	if err := os.MkdirAll(filepath.Dir(thumb), 0o755); err != nil {
		return up, fmt.Errorf("mkdir %s: %w", filepath.Dir(thumb), err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return up, fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(full, buf.Bytes(), 0o644); err != nil {
		return up, fmt.Errorf("write %s: %w", full, err)
	}
	if h.LogFunc != nil {
		h.LogFunc(full, int64(buf.Len()), mimeType)
	}
	if err := imaging.Save(imaging.Resize(img, ThumbWidth, 0, imaging.Lanczos), thumb, imaging.JPEGQuality(80)); err != nil {
		return up, fmt.Errorf("write thumbnail %s: %w", thumb, err)
	}
	if h.LogFunc != nil {
		h.LogFunc(thumb, 0, "image/jpeg")
	}

	b := img.Bounds()
	return Upload{
		URL:      h.BaseURL + "/" + base + ext,
		ThumbURL: h.BaseURL + "/thumb/" + base + ".jpg",
		Width:    b.Dx(),
		Height:   b.Dy(),
		Bytes:    int64(buf.Len()),
		Format:   strings.TrimPrefix(ext, "."),
	}, nil
}
