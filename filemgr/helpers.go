package filemgr

import (
	"net/http"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

func ensureSafeFilename(name, ext string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeName.ReplaceAllString(name, "")
	return name + ext
}

func isExtensionAllowed(ext string) bool {
	return slices.Contains(AllowedExtensions, ext)
}

func isMIMEAllowed(mimeType string) bool {
	return slices.Contains(AllowedMIMEs, mimeType)
}

// Validate checks an upload's name, size and sniffed content type before
// it is sent to the image host. It returns the detected MIME type.
func Validate(name string, size int64, head []byte) (string, error) {
	if size <= 0 || len(head) == 0 {
		return "", ErrEmptyFile
	}
	if size > MaxUploadSize {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !isExtensionAllowed(ext) {
		return "", ErrInvalidExtension
	}
	if len(head) > 512 {
		head = head[:512]
	}
	mimeType := http.DetectContentType(head)
	if !isMIMEAllowed(mimeType) {
		return "", ErrInvalidMIME
	}
	return mimeType, nil
}
