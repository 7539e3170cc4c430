package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"caintamart/models"
)

type M map[string]interface{}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// RespondWithErr picks a status for err from codes, then falls back to the
// shared validation and forbidden errors. Anything else is logged and
// reported as a generic failure.
func RespondWithErr(w http.ResponseWriter, err error, codes map[error]int) {
	for target, code := range codes {
		if errors.Is(err, target) {
			RespondWithError(w, code, err.Error())
			return
		}
	}
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		RespondWithJSON(w, http.StatusBadRequest, M{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, models.ErrForbidden):
		RespondWithError(w, http.StatusForbidden, "Forbidden")
	default:
		log.Printf("request failed: %v", err)
		RespondWithError(w, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// DecodeJSON reads a JSON body of at most 1MB into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return models.Invalid("body", "invalid JSON")
	}
	return nil
}
