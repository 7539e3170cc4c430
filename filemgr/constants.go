package filemgr

import "errors"

const (
	// MaxUploadSize is the ceiling for a single image upload.
	MaxUploadSize int64 = 5 << 20
	ThumbWidth          = 300
)

var (
	AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	AllowedMIMEs      = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrInvalidExtension = errors.New("only JPEG, PNG, GIF or WebP images are allowed")
	ErrInvalidMIME      = errors.New("file content is not a supported image")
	ErrFileTooLarge     = errors.New("image must be 5MB or smaller")
	ErrEmptyFile        = errors.New("file is empty")
	ErrUndecodable      = errors.New("image could not be read")
)

// Upload describes a stored image.
type Upload struct {
	URL      string `json:"url"`
	ThumbURL string `json:"thumbUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int64  `json:"bytes"`
	Format   string `json:"format"`
}
