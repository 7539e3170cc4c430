package filemgr

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
)

// ErrNoFile means the form field was absent.
var ErrNoFile = errors.New("no file uploaded")

// IsClientError reports whether err came from a rejected upload rather
// than a storage failure.
func IsClientError(err error) bool {
	for _, target := range []error{ErrInvalidExtension, ErrInvalidMIME, ErrFileTooLarge, ErrEmptyFile, ErrUndecodable, ErrNoFile} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseForm parses a multipart request whose files are capped at
// MaxUploadSize.
func ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrFileTooLarge
		}
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// SaveFormFile uploads the image in field of an already parsed form.
func SaveFormFile(r *http.Request, field string, up Uploader) (Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Upload{}, ErrNoFile
		}
		return Upload{}, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()
	if header.Size > MaxUploadSize {
		return Upload{}, ErrFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read %s: %w", field, err)
	}
	return up.Upload(r.Context(), header.Filename, data)
}

// UploadHandler accepts a single "file" field and returns its Upload.
func UploadHandler(up Uploader) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := ParseForm(w, r); err != nil {
			respondUploadErr(w, err)
			return
		}
		res, err := SaveFormFile(r, "file", up)
		if err != nil {
			respondUploadErr(w, err)
			return
		}
		log.Printf("[upload] %s stored by %s (%d bytes)", res.URL, utils.GetUserIDFromRequest(r), res.Bytes)
		utils.RespondWithJSON(w, http.StatusCreated, res)
	}
}

func respondUploadErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrFileTooLarge) {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if IsClientError(err) {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondWithErr(w, err, nil)
}
