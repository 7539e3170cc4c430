// Package commerce implements the cart, stock, checkout, order and product
// operations. Every stock read-modify-write runs under a per-product lock
// and every cart change under a per-user lock, product first.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/state"
	"caintamart/utils"
)

// FeeSource supplies the current delivery fee.
type FeeSource interface {
	DeliveryFee(ctx context.Context) (float64, error)
}

type Service struct {
	store docstore.Store
	app   *state.App
	fees  FeeSource
	locks *keyedMutex
	now   func() time.Time
	newID func() string
}

func NewService(store docstore.Store, app *state.App, fees FeeSource) *Service {
	return &Service{
		store: store,
		app:   app,
		fees:  fees,
		locks: newKeyedMutex(),
		now:   time.Now,
		newID: utils.GetUUID,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func productPath(id string) string { return docstore.Join("products", id) }
func cartPath(uid string) string   { return docstore.Join("carts", uid) }
func orderPath(id string) string   { return docstore.Join("orders", id) }
func userPath(uid string) string   { return docstore.Join("users", uid) }

func (s *Service) lockProduct(id string) func() { return s.locks.Lock("product:" + id) }
func (s *Service) lockCart(uid string) func()   { return s.locks.Lock("cart:" + uid) }

// Product reads a product from the gateway.
func (s *Service) Product(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	if id == "" {
		return p, ErrProductNotFound
	}
	if err := s.store.Read(ctx, productPath(id), &p); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return p, ErrProductNotFound
		}
		return p, fmt.Errorf("commerce: read product %s: %w", id, err)
	}
	p.ID = id
	return p, nil
}

// saveStock persists a new quantity and mirrors it into state.
func (s *Service) saveStock(ctx context.Context, p models.Product, qty int) (models.Product, error) {
	if qty < 0 {
		qty = 0
	}
	p.Quantity = qty
	p.UpdatedAt = s.now()
	err := s.store.Merge(ctx, productPath(p.ID), map[string]any{
		"quantity":  p.Quantity,
		"updatedAt": p.UpdatedAt,
	})
	if err != nil {
		return p, fmt.Errorf("commerce: update stock %s: %w", p.ID, err)
	}
	s.app.PutProduct(p)
	return p, nil
}

// Cart reads uid's cart from the gateway and caches it in state.
func (s *Service) Cart(ctx context.Context, uid string) (models.Cart, error) {
	if uid == "" {
		return models.Cart{}, ErrAuthRequired
	}
	c, err := s.readCart(ctx, uid)
	if err != nil {
		return c, err
	}
	s.app.PutCart(c)
	return c, nil
}

func (s *Service) readCart(ctx context.Context, uid string) (models.Cart, error) {
	c := models.Cart{UserID: uid}
	err := s.store.Read(ctx, cartPath(uid), &c)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return c, fmt.Errorf("commerce: read cart %s: %w", uid, err)
	}
	c.UserID = uid
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

func (s *Service) saveCart(ctx context.Context, c models.Cart) error {
	c.UpdatedAt = s.now()
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	if err := s.store.Write(ctx, cartPath(c.UserID), c); err != nil {
		return fmt.Errorf("commerce: write cart %s: %w", c.UserID, err)
	}
	s.app.PutCart(c)
	return nil
}

func (s *Service) user(ctx context.Context, uid string) (models.User, error) {
	var u models.User
	if err := s.store.Read(ctx, userPath(uid), &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return u, ErrAuthRequired
		}
		return u, fmt.Errorf("commerce: read user %s: %w", uid, err)
	}
	return u, nil
}

// snapshotOf converts v into a plain map for audit logs.
func snapshotOf(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func (s *Service) writeDeleteLog(ctx context.Context, actor models.Actor, entity, id string, v any) error {
	entry := models.DeleteLog{
		ID:         s.newID(),
		EntityType: entity,
		EntityID:   id,
		DeletedBy:  actor.Label(),
		DeletedAt:  s.now(),
		Snapshot:   snapshotOf(v),
	}
	if err := s.store.Write(ctx, docstore.Join("deleteLogs", entry.ID), entry); err != nil {
		return fmt.Errorf("commerce: write delete log for %s %s: %w", entity, id, err)
	}
	return nil
}
