package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memEntry struct {
	seq  int64
	data []byte
}

// Memory is an in-process Store backed by JSON documents.
type Memory struct {
	mu   sync.RWMutex
	seq  int64
	dirs map[string]map[string]memEntry
	feed Feed
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		dirs: make(map[string]map[string]memEntry),
		feed: NewLocalFeed(),
		now:  time.Now,
	}
}

func (m *Memory) Read(_ context.Context, path string, out any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	m.mu.RLock()
	e, ok := m.dirs[r.dir()][r.ID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(e.data, out)
}

func (m *Memory) Write(ctx context.Context, path string, value any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	m.put(r, data)
	m.publish(ctx, r, path, OpWrite)
	return nil
}

func (m *Memory) Merge(ctx context.Context, path string, fields map[string]any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}

	m.mu.Lock()
	doc := map[string]json.RawMessage{}
	if e, ok := m.dirs[r.dir()][r.ID]; ok {
		if err := json.Unmarshal(e.data, &doc); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("docstore: decode %s: %w", path, err)
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("docstore: encode %s.%s: %w", path, k, err)
		}
		doc[k] = b
	}
	data, err := json.Marshal(doc)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.putLocked(r, data)
	m.mu.Unlock()

	m.publish(ctx, r, path, OpMerge)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	m.mu.Lock()
	delete(m.dirs[r.dir()], r.ID)
	m.mu.Unlock()
	m.publish(ctx, r, path, OpDelete)
	return nil
}

func (m *Memory) Append(ctx context.Context, path string, value any) (string, error) {
	r, err := parsePath(path)
	if err != nil {
		return "", err
	}
	if r.isDoc() {
		return "", fmt.Errorf("%w: %q is not a list", ErrInvalidPath, path)
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	r.ID = id
	m.put(r, data)
	m.publish(ctx, r, path+"/"+id, OpAppend)
	return id, nil
}

func (m *Memory) List(_ context.Context, path string) ([]Record, error) {
	r, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if r.isDoc() {
		return nil, fmt.Errorf("%w: %q is not a list", ErrInvalidPath, path)
	}
	m.mu.RLock()
	entries := m.dirs[r.dir()]
	out := make([]Record, 0, len(entries))
	seqs := make(map[string]int64, len(entries))
	for id, e := range entries {
		out = append(out, Record{ID: id, raw: e.data, decode: json.Unmarshal})
		seqs[id] = e.seq
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return seqs[out[i].ID] < seqs[out[j].ID] })
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, onChange func(ChangeEvent), onError func(error)) (Subscription, error) {
	return subscribe(ctx, m.feed, collection, onChange, onError)
}

func (m *Memory) put(r ref, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(r, data)
}

// putLocked keeps the original sequence for overwritten documents.
func (m *Memory) putLocked(r ref, data []byte) {
	dir := r.dir()
	if m.dirs[dir] == nil {
		m.dirs[dir] = make(map[string]memEntry)
	}
	e, ok := m.dirs[dir][r.ID]
	if !ok {
		m.seq++
		e.seq = m.seq
	}
	e.data = data
	m.dirs[dir][r.ID] = e
}

func (m *Memory) publish(ctx context.Context, r ref, path string, op Op) {
	ev := ChangeEvent{Collection: r.Collection, Path: path, Op: op, At: m.now()}
	if err := m.feed.Publish(ctx, ev); err != nil {
		log.Printf("docstore: publish %s %s: %v", op, path, err)
	}
}

// newID returns a time-ordered identifier.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("docstore: generate id: %w", err)
	}
	return id.String(), nil
}
