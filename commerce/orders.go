package commerce

import (
	"context"
	"errors"
	"fmt"
	"log"

	"caintamart/docstore"
	"caintamart/models"
)

// Order returns an order visible to actor: its owner or any admin.
func (s *Service) Order(ctx context.Context, actor models.Actor, id string) (models.Order, error) {
	var o models.Order
	if actor.ID == "" {
		return o, ErrAuthRequired
	}
	if err := s.store.Read(ctx, orderPath(id), &o); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return o, ErrOrderNotFound
		}
		return o, fmt.Errorf("commerce: read order %s: %w", id, err)
	}
	o.ID = id
	if o.UserID != actor.ID && !actor.Admin {
		return models.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// AdvanceOrder moves an order one step along the status progression.
func (s *Service) AdvanceOrder(ctx context.Context, actor models.Actor, id string) (models.Order, error) {
	if !actor.Admin {
		return models.Order{}, models.ErrForbidden
	}
	unlock := s.locks.Lock("order:" + id)
	defer unlock()

	o, err := s.Order(ctx, actor, id)
	if err != nil {
		return o, err
	}
	next, ok := o.Status.Next()
	if !ok {
		return o, models.Invalid("status", "order is already "+string(o.Status))
	}
	return s.moveTo(ctx, actor, o, next)
}

// SetOrderStatus jumps to a later status. Orders never move backwards.
func (s *Service) SetOrderStatus(ctx context.Context, actor models.Actor, id string, status models.OrderStatus) (models.Order, error) {
	if !actor.Admin {
		return models.Order{}, models.ErrForbidden
	}
	if status.Rank() < 0 {
		return models.Order{}, models.Invalid("status", "unknown status")
	}
	unlock := s.locks.Lock("order:" + id)
	defer unlock()

	o, err := s.Order(ctx, actor, id)
	if err != nil {
		return o, err
	}
	if status.Rank() <= o.Status.Rank() {
		return o, models.Invalid("status", "must come after "+string(o.Status))
	}
	return s.moveTo(ctx, actor, o, status)
}

func (s *Service) moveTo(ctx context.Context, actor models.Actor, o models.Order, status models.OrderStatus) (models.Order, error) {
	now := s.now()
	o.Status = status
	o.UpdatedAt = now
	o.History = append(o.History, models.StatusChange{Status: status, ChangedBy: actor.Label(), ChangedAt: now})
	err := s.store.Merge(ctx, orderPath(o.ID), map[string]any{
		"status":    o.Status,
		"updatedAt": o.UpdatedAt,
		"history":   o.History,
	})
	if err != nil {
		return o, fmt.Errorf("commerce: update order %s: %w", o.ID, err)
	}
	log.Printf("[commerce] order %s -> %s by %s", o.ID, status, actor.Label())
	return o, nil
}

// DeleteOrder logs the order to deleteLogs and then removes it.
func (s *Service) DeleteOrder(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Admin {
		return models.ErrForbidden
	}
	o, err := s.Order(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.writeDeleteLog(ctx, actor, "order", id, o); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, orderPath(id)); err != nil {
		return fmt.Errorf("commerce: delete order %s: %w", id, err)
	}
	return nil
}
