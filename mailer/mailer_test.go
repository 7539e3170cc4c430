package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSenderPostsTemplate(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "pk_123", srv.Client())
	rc, err := s.SendTemplateEmail(context.Background(), "svc", "signup_code", map[string]string{"code": "123456"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rc.Status)
	assert.NotEmpty(t, rc.ID)
	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "signup_code", got.TemplateID)
	assert.Equal(t, "pk_123", got.UserID)
	assert.Equal(t, "123456", got.TemplateParams["code"])
}

func TestHTTPSenderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The template ID is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewHTTPSender(srv.URL, "", nil).SendTemplateEmail(context.Background(), "svc", "nope", nil)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "template ID is invalid")
}

func TestNewFallsBackToLog(t *testing.T) {
	s := New("", "")
	ls, ok := s.(*LogSender)
	require.True(t, ok)
	_, err := ls.SendTemplateEmail(context.Background(), "svc", "reset_code", map[string]string{"to_email": "a@b.ph"})
	require.NoError(t, err)
	require.Len(t, ls.Sent(), 1)
	assert.Equal(t, "reset_code", ls.Sent()[0].TemplateID)

	_, ok = New("http://mail.invalid/send", "pk").(*HTTPSender)
	assert.True(t, ok)
}
