// Package idempotency replays the stored response for a repeated
// Idempotency-Key instead of running a mutating handler twice.
package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"caintamart/docstore"
	"caintamart/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	Header  = "Idempotency-Key"
	TTL     = 24 * time.Hour
	maxBody = 1 << 20
)

type record struct {
	Method      string    `json:"method" bson:"method"`
	Path        string    `json:"path" bson:"path"`
	UserID      string    `json:"userId" bson:"userId"`
	RequestHash string    `json:"requestHash" bson:"requestHash"`
	Status      int       `json:"status" bson:"status"`
	ContentType string    `json:"contentType,omitempty" bson:"contentType,omitempty"`
	Body        []byte    `json:"body,omitempty" bson:"body,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Guard keeps completed responses under idempotency/{hash(user, key)}.
type Guard struct {
	store docstore.Store
	now   func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
}

func New(store docstore.Store) *Guard {
	return &Guard{store: store, now: time.Now, inflight: map[string]bool{}}
}

func (g *Guard) SetClock(now func() time.Time) { g.now = now }

func hash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter passes the response through and keeps a copy of it.
type captureWriter struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (c *captureWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
		c.ResponseWriter.WriteHeader(code)
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Wrap guards next. Requests without the header pass straight through.
// A key reused with a different body, or while its first request is still
// running, gets 409. Only responses below 500 are kept, so failed attempts
// can be retried with the same key.
func (g *Guard) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := r.Header.Get(Header)
		if key == "" {
			next(w, r, ps)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		userID := utils.GetUserIDFromRequest(r)
		id := hash([]byte(userID), []byte(key))
		reqHash := hash([]byte(r.Method), []byte(r.URL.Path), []byte(userID), body)
		path := docstore.Join("idempotency", id)

		g.mu.Lock()
		if g.inflight[id] {
			g.mu.Unlock()
			utils.RespondWithError(w, http.StatusConflict, "a request with this Idempotency-Key is still in progress")
			return
		}
		prev, found, err := g.lookup(r.Context(), path)
		if err != nil {
			g.mu.Unlock()
			log.Printf("[idempotency] lookup %s: %v", id, err)
			utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
			return
		}
		if found {
			g.mu.Unlock()
			if prev.RequestHash != reqHash {
				utils.RespondWithError(w, http.StatusConflict, "idempotency-key conflict")
				return
			}
			replay(w, prev)
			return
		}
		g.inflight[id] = true
		g.mu.Unlock()
		defer func() {
			g.mu.Lock()
			delete(g.inflight, id)
			g.mu.Unlock()
		}()

		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next(cw, r, ps)
		if cw.status >= http.StatusInternalServerError {
			return
		}

		now := g.now()
		rec := record{
			Method:      r.Method,
			Path:        r.URL.Path,
			UserID:      userID,
			RequestHash: reqHash,
			Status:      cw.status,
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.buf.Bytes(),
			CreatedAt:   now,
			ExpiresAt:   now.Add(TTL),
		}
		if err := g.store.Write(context.WithoutCancel(r.Context()), path, rec); err != nil {
			log.Printf("[idempotency] save %s: %v", id, err)
		}
	}
}

// lookup returns an unexpired record at path.
func (g *Guard) lookup(ctx context.Context, path string) (record, bool, error) {
	var rec record
	err := g.store.Read(ctx, path, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	if !g.now().Before(rec.ExpiresAt) {
		return rec, false, nil
	}
	return rec, true, nil
}

func replay(w http.ResponseWriter, rec record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rec.Status)
	w.Write(rec.Body)
}
