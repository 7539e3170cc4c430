// Package docstore is the path-addressed document gateway the storefront
// persists through. Paths look like "products/{id}" or
// "chats/{threadId}/messages"; every committed write emits a ChangeEvent on
// the top-level collection so subscribers can rehydrate.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("docstore: not found")
	ErrInvalidPath = errors.New("docstore: invalid path")
)

type Op string

const (
	OpWrite  Op = "write"
	OpMerge  Op = "merge"
	OpDelete Op = "delete"
	OpAppend Op = "append"
)

// ChangeEvent announces that something under Collection changed. It carries
// no payload; subscribers re-read what they need.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Path       string    `json:"path"`
	Op         Op        `json:"op"`
	At         time.Time `json:"at"`
}

// Store is the gateway contract.
type Store interface {
	Read(ctx context.Context, path string, out any) error
	Write(ctx context.Context, path string, value any) error
	// Merge sets the given top-level fields, creating the document if
	// needed. A nil value removes the field.
	Merge(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	// Append adds value to the list at path and returns its generated id.
	// Ids sort in insertion order.
	Append(ctx context.Context, path string, value any) (string, error)
	// List returns every document directly under a collection path.
	List(ctx context.Context, path string) ([]Record, error)
	Subscribe(ctx context.Context, collection string, onChange func(ChangeEvent), onError func(error)) (Subscription, error)
}

// Subscription is returned by Store.Subscribe.
type Subscription interface {
	Close() error
}

// Record is one listed document. Decode fills out using the backend's codec.
type Record struct {
	ID     string
	raw    []byte
	decode func([]byte, any) error
}

func (r Record) Decode(out any) error {
	if r.decode == nil {
		return errors.New("docstore: empty record")
	}
	return r.decode(r.raw, out)
}

// Feed carries change events between writers and subscribers.
type Feed interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(ctx context.Context, collection string) (<-chan ChangeEvent, func() error, error)
}

type subscription struct {
	cancel func() error
}

func (s subscription) Close() error { return s.cancel() }

// subscribe pumps feed events for collection into onChange until the
// subscription is closed or ctx is done.
func subscribe(ctx context.Context, feed Feed, collection string, onChange func(ChangeEvent), onError func(error)) (Subscription, error) {
	if collection == "" {
		return nil, ErrInvalidPath
	}
	ch, cancel, err := feed.Subscribe(ctx, collection)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return nil, err
	}
	go func() {
		for ev := range ch {
			onChange(ev)
		}
	}()
	return subscription{cancel: cancel}, nil
}

// ListDecoded lists path and decodes every record with decode.
func ListDecoded[T any](ctx context.Context, s Store, path string) ([]T, []string, error) {
	recs, err := s.List(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	out := make([]T, 0, len(recs))
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := rec.Decode(&v); err != nil {
			return nil, nil, err
		}
		out = append(out, v)
		ids = append(ids, rec.ID)
	}
	return out, ids, nil
}
