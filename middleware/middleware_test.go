package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caintamart/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uid, _ := r.Context().Value(globals.UserIDKey).(string)
	w.Write([]byte(uid))
}

func TestAuthenticate(t *testing.T) {
	tok, err := NewToken("u1", "ana@example.com", "Ana", globals.RoleCustomer, time.Now(), time.Hour)
	require.NoError(t, err)

	h := Authenticate(echoUser)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := NewToken("u1", "", "", globals.RoleCustomer, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	h(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectsOtherSigningMethods(t *testing.T) {
	claims := &Claims{UserID: "u1", Role: globals.RoleAdmin}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT("Bearer " + raw)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(echoUser)
	for role, want := range map[string]int{globals.RoleAdmin: http.StatusOK, globals.RoleCustomer: http.StatusForbidden} {
		tok, err := NewToken("u1", "", "", role, time.Now(), time.Hour)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		h(rec, req, nil)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	OptionalAuth(echoUser)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
