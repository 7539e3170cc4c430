package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusProgression(t *testing.T) {
	next, ok := StatusPreOrderReceived.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusPreparing, next)

	_, ok = StatusDelivered.Next()
	assert.False(t, ok)

	_, ok = OrderStatus("Lost").Next()
	assert.False(t, ok)
	assert.Less(t, StatusPreparing.Rank(), StatusOutForDelivery.Rank())
}

func TestCartHelpers(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ProductID: "p1", Price: 45.5, Quantity: 2},
		{ProductID: "p1", Price: 45.5, Quantity: 1, Preordered: true},
		{ProductID: "p2", Price: 124, Quantity: 1},
	}}
	assert.Equal(t, 0, c.Find("p1", false))
	assert.Equal(t, 1, c.Find("p1", true))
	assert.Equal(t, -1, c.Find("p3", false))
	assert.Equal(t, 260.5, c.Subtotal())
	assert.Equal(t, 4, c.Count())
	assert.True(t, c.HasPreorder())

	clone := c.Clone()
	clone.Items[0].Quantity = 99
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestFreshnessTier(t *testing.T) {
	assert.Equal(t, FreshnessFresh, TierFor(80))
	assert.Equal(t, FreshnessGood, TierFor(79))
	assert.Equal(t, FreshnessGood, TierFor(50))
	assert.Equal(t, FreshnessAging, TierFor(49))
}

func TestClampPreorderDays(t *testing.T) {
	assert.Equal(t, 7, ClampPreorderDays(1))
	assert.Equal(t, 10, ClampPreorderDays(10))
	assert.Equal(t, 14, ClampPreorderDays(30))
}

func TestCodeExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var nilCode *Code
	assert.True(t, nilCode.Expired(now))
	c := &Code{Code: "123456", ExpiresAt: now.Add(15 * time.Minute)}
	assert.False(t, c.Expired(now))
	assert.True(t, c.Expired(now.Add(15*time.Minute)))
}

func TestRoleOpposite(t *testing.T) {
	assert.Equal(t, RoleAdmin, RoleCustomer.Opposite())
	assert.Equal(t, RoleCustomer, RoleAdmin.Opposite())
	assert.False(t, Role("guest").Valid())
}

func TestRemainingDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ms := start.UnixMilli()

	assert.Equal(t, 7, RemainingDays(ms, 7, start))
	assert.Equal(t, 7, RemainingDays(ms, 7, start.Add(time.Hour)))
	assert.Equal(t, 1, RemainingDays(ms, 7, start.Add(6*24*time.Hour+time.Minute)))
	assert.Equal(t, 0, RemainingDays(ms, 7, start.Add(7*24*time.Hour)))
	assert.Equal(t, -1, RemainingDays(ms, 7, start.Add(8*24*time.Hour)))

	p := Product{Preorder: true, PreorderDays: 10, PreorderStart: ms}
	assert.Equal(t, 10, p.PreorderRemaining(start))
}
