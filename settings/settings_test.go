package settings

import (
	"context"
	"sync"
	"testing"
	"time"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	vals map[string]string
	hits int
}

func (c *memCache) Get(_ context.Context, k string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[k]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, k, v string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[k] = v
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.vals, k)
	}
	return nil
}

func TestDeliveryFeeDefaultsAndCaches(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{vals: map[string]string{}}
	s := New(docstore.NewMemory(), cache, state.New(0), DefaultDeliveryFee)

	fee, err := s.DeliveryFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fee)

	fee, err = s.DeliveryFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fee)
	assert.Equal(t, 1, cache.hits)
}

func TestSetDeliveryFee(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{vals: map[string]string{}}
	store := docstore.NewMemory()
	app := state.New(DefaultDeliveryFee)
	s := New(store, cache, app, DefaultDeliveryFee)
	admin := models.Actor{ID: "a1", Email: "admin@example.com", Admin: true}

	_, err := s.DeliveryFee(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetDeliveryFee(ctx, models.Actor{ID: "u1"}, 10), models.ErrForbidden)
	assert.True(t, models.IsValidation(s.SetDeliveryFee(ctx, admin, -1)))

	require.NoError(t, s.SetDeliveryFee(ctx, admin, 25))
	fee, err := s.DeliveryFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.0, fee)

	require.NoError(t, s.Source()(ctx))
	assert.Equal(t, 25.0, app.Snapshot().DeliveryFee)
}
