package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"caintamart/globals"
	"caintamart/models"

	"github.com/stretchr/testify/assert"
)

func TestIDs(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), GenerateRandomDigitString(6))
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), ShortID(8))
	assert.NotEqual(t, GetUUID(), GetUUID())
}

func TestRespondWithErr(t *testing.T) {
	notFound := errors.New("missing")

	rec := httptest.NewRecorder()
	RespondWithErr(rec, models.Invalid("barangay", "not serviceable"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"barangay"`)

	rec = httptest.NewRecorder()
	RespondWithErr(rec, errors.Join(notFound, errors.New("detail")), map[error]int{notFound: http.StatusNotFound})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	RespondWithErr(rec, models.ErrForbidden, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	RespondWithErr(rec, errors.New("boom"), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "boom"))
}

func TestActorFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(r.Context(), globals.UserIDKey, "u1")
	ctx = context.WithValue(ctx, globals.RoleKey, globals.RoleAdmin)
	ctx = context.WithValue(ctx, globals.EmailKey, "admin@example.com")
	a := ActorFromRequest(r.WithContext(ctx))
	assert.Equal(t, models.Actor{ID: "u1", Email: "admin@example.com", Admin: true}, a)
	assert.Empty(t, GetUserIDFromRequest(r))
}
