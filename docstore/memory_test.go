package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

func TestMemoryReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got doc
	err := m.Read(ctx, "products/p1", &got)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Write(ctx, "products/p1", doc{Name: "Tomato", Count: 3}))
	require.NoError(t, m.Read(ctx, "products/p1", &got))
	assert.Equal(t, doc{Name: "Tomato", Count: 3}, got)

	require.NoError(t, m.Delete(ctx, "products/p1"))
	assert.ErrorIs(t, m.Read(ctx, "products/p1", &got), ErrNotFound)
}

func TestMemoryMergeCreatesAndRemovesFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Merge(ctx, "chats/t1", map[string]any{"name": "Ana", "tag": "x"}))
	require.NoError(t, m.Merge(ctx, "chats/t1", map[string]any{"count": 2, "tag": nil}))

	var got doc
	require.NoError(t, m.Read(ctx, "chats/t1", &got))
	assert.Equal(t, doc{Name: "Ana", Count: 2}, got)
}

func TestMemoryAppendKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		id, err := m.Append(ctx, "chats/t1/messages", doc{Name: name})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := m.Append(ctx, "chats/t2/messages", doc{Name: "other"})
	require.NoError(t, err)

	docs, gotIDs, err := ListDecoded[doc](ctx, m, "chats/t1/messages")
	require.NoError(t, err)
	assert.Equal(t, ids, gotIDs)
	require.Len(t, docs, 4)
	assert.Equal(t, "a", docs[0].Name)
	assert.Equal(t, "d", docs[3].Name)
}

func TestMemoryOverwriteKeepsPosition(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Write(ctx, "orders/o1", doc{Name: "first"}))
	require.NoError(t, m.Write(ctx, "orders/o2", doc{Name: "second"}))
	require.NoError(t, m.Write(ctx, "orders/o1", doc{Name: "first again"}))

	docs, ids, err := ListDecoded[doc](ctx, m, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, ids)
	assert.Equal(t, "first again", docs[0].Name)
}

func TestMemoryPathKinds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assert.ErrorIs(t, m.Write(ctx, "products", doc{}), ErrInvalidPath)
	_, err := m.Append(ctx, "products/p1", doc{})
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = m.List(ctx, "products/p1")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, m.Read(ctx, "", &doc{}), ErrInvalidPath)
	assert.ErrorIs(t, m.Read(ctx, "a//b", &doc{}), ErrInvalidPath)
}

func TestMemorySubscribeReceivesCollectionEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var mu sync.Mutex
	var events []ChangeEvent
	sub, err := m.Subscribe(ctx, "chats", func(ev ChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, m.Write(ctx, "products/p1", doc{Name: "ignored"}))
	require.NoError(t, m.Merge(ctx, "chats/t1", map[string]any{"name": "x"}))
	_, err = m.Append(ctx, "chats/t1/messages", doc{Name: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, OpMerge, events[0].Op)
	assert.Equal(t, "chats/t1", events[0].Path)
	assert.Equal(t, OpAppend, events[1].Op)
	for _, ev := range events {
		assert.Equal(t, "chats", ev.Collection)
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var mu sync.Mutex
	n := 0
	sub, err := m.Subscribe(ctx, "orders", func(ChangeEvent) {
		mu.Lock()
		n++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, m.Write(ctx, "orders/o1", doc{Name: "x"}))
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, n)
}

type failingFeed struct{}

func (failingFeed) Publish(context.Context, ChangeEvent) error { return nil }
func (failingFeed) Subscribe(context.Context, string) (<-chan ChangeEvent, func() error, error) {
	return nil, nil, errors.New("feed down")
}

func TestSubscribeReportsFeedError(t *testing.T) {
	var got error
	_, err := subscribe(context.Background(), failingFeed{}, "chats", func(ChangeEvent) {}, func(err error) { got = err })
	require.Error(t, err)
	assert.EqualError(t, got, "feed down")
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		path  string
		want  ref
		doc   bool
		table string
	}{
		{"products", ref{Collection: "products"}, false, "products"},
		{"products/p1", ref{Collection: "products", ID: "p1"}, true, "products"},
		{"chats/t1/messages", ref{Collection: "chats", Parent: "t1", Sub: "messages"}, false, "chats_messages"},
		{"/chats/t1/messages/m1/", ref{Collection: "chats", Parent: "t1", Sub: "messages", ID: "m1"}, true, "chats_messages"},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			r, err := parsePath(c.path)
			require.NoError(t, err)
			assert.Equal(t, c.want, r)
			assert.Equal(t, c.doc, r.isDoc())
			assert.Equal(t, c.table, r.table())
		})
	}

	_, err := parsePath("a/b/c/d/e")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Equal(t, "chats/t1/messages", Join("chats", "t1", "messages"))
}
