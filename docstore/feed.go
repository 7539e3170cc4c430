package docstore

import (
	"context"
	"sync"
)

const feedBuffer = 64

// LocalFeed fans change events out to in-process subscribers. A subscriber
// whose buffer is full misses the event; the events still queued for it
// already guarantee a later reload.
type LocalFeed struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan ChangeEvent
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[string]map[int]chan ChangeEvent)}
}

func (f *LocalFeed) Publish(_ context.Context, ev ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[ev.Collection] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (f *LocalFeed) Subscribe(_ context.Context, collection string) (<-chan ChangeEvent, func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[int]chan ChangeEvent)
	}
	id := f.next
	f.next++
	ch := make(chan ChangeEvent, feedBuffer)
	f.subs[collection][id] = ch

	var once sync.Once
	cancel := func() error {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[collection], id)
			close(ch)
		})
		return nil
	}
	return ch, cancel, nil
}
