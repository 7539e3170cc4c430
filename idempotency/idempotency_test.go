package idempotency

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"caintamart/docstore"
	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(calls *int32, status int) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		n := atomic.AddInt32(calls, 1)
		utils.RespondWithJSON(w, status, utils.M{"call": n})
	}
}

func post(h httprouter.Handle, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(Header, key)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestReplaysCompletedResponse(t *testing.T) {
	var calls int32
	h := New(docstore.NewMemory()).Wrap(counting(&calls, http.StatusCreated))

	first := post(h, "k1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(h, "k1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	conflict := post(h, "k1", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestWithoutKeyPassesThrough(t *testing.T) {
	var calls int32
	h := New(docstore.NewMemory()).Wrap(counting(&calls, http.StatusCreated))
	post(h, "", `{}`)
	post(h, "", `{}`)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestServerErrorsAreNotKept(t *testing.T) {
	var calls int32
	h := New(docstore.NewMemory()).Wrap(counting(&calls, http.StatusInternalServerError))
	post(h, "k", `{}`)
	post(h, "k", `{}`)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestExpiredRecordRunsAgain(t *testing.T) {
	var calls int32
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	g := New(docstore.NewMemory())
	g.SetClock(func() time.Time { return now })
	h := g.Wrap(counting(&calls, http.StatusCreated))

	post(h, "k", `{}`)
	now = now.Add(TTL)
	post(h, "k", `{}`)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestInflightKeyConflicts(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	g := New(docstore.NewMemory())
	h := g.Wrap(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- post(h, "k", `{}`) }()
	<-started

	rec := post(h, "k", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusCreated, (<-done).Code)
}
