package commerce

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"caintamart/models"
	"caintamart/state"
)

// ProductInput is the admin product form.
type ProductInput struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description" yaml:"description"`
	Price        float64       `json:"price" yaml:"price"`
	Quantity     int           `json:"quantity" yaml:"quantity"`
	Unit         string        `json:"unit" yaml:"unit"`
	Origin       string        `json:"origin" yaml:"origin"`
	Farmer       models.Farmer `json:"farmer" yaml:"farmer"`
	ImageURL     string        `json:"imageUrl" yaml:"imageUrl"`
	Freshness    int           `json:"freshness" yaml:"freshness"`
	PreorderDays int           `json:"preorderDays,omitempty" yaml:"preorderDays"`
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return models.Invalid("name", "is required")
	case in.Price <= 0:
		return models.Invalid("price", "must be greater than zero")
	case in.Quantity < 0:
		return models.Invalid("quantity", "cannot be negative")
	case in.Freshness < 0 || in.Freshness > 100:
		return models.Invalid("freshness", "must be between 0 and 100")
	case strings.TrimSpace(in.Unit) == "":
		return models.Invalid("unit", "is required")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = models.Round2(in.Price)
	p.Quantity = in.Quantity
	p.Unit = strings.TrimSpace(in.Unit)
	p.Origin = strings.TrimSpace(in.Origin)
	p.Farmer = in.Farmer
	p.ImageURL = in.ImageURL
	p.Freshness = in.Freshness
}

// CreateProduct adds a catalog entry. A positive PreorderDays starts a
// preorder window at once.
func (s *Service) CreateProduct(ctx context.Context, actor models.Actor, in ProductInput) (models.Product, error) {
	if !actor.Admin {
		return models.Product{}, models.ErrForbidden
	}
	return s.createProduct(ctx, s.newID(), in)
}

// ImportProduct writes in under id, replacing any existing entry. It is
// used by seeding and skips the admin check.
func (s *Service) ImportProduct(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	return s.createProduct(ctx, id, in)
}

func (s *Service) createProduct(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}
	now := s.now()
	p := models.Product{ID: id, CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	if in.PreorderDays > 0 {
		p.Preorder = true
		p.PreorderDays = models.ClampPreorderDays(in.PreorderDays)
		p.PreorderStart = now.UnixMilli()
	}
	if err := s.store.Write(ctx, productPath(p.ID), p); err != nil {
		return p, fmt.Errorf("commerce: write product: %w", err)
	}
	s.app.PutProduct(p)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor models.Actor, id string, in ProductInput) (models.Product, error) {
	if !actor.Admin {
		return models.Product{}, models.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}
	unlock := s.lockProduct(id)
	defer unlock()

	p, err := s.Product(ctx, id)
	if err != nil {
		return p, err
	}
	in.apply(&p)
	p.UpdatedAt = s.now()
	if err := s.store.Write(ctx, productPath(id), p); err != nil {
		return p, fmt.Errorf("commerce: write product %s: %w", id, err)
	}
	s.app.PutProduct(p)
	return p, nil
}

// DeleteProduct logs the product to deleteLogs and then removes it.
func (s *Service) DeleteProduct(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Admin {
		return models.ErrForbidden
	}
	unlock := s.lockProduct(id)
	defer unlock()

	p, err := s.Product(ctx, id)
	if err != nil {
		return err
	}
	if err := s.writeDeleteLog(ctx, actor, "product", id, p); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, productPath(id)); err != nil {
		return fmt.Errorf("commerce: delete product %s: %w", id, err)
	}
	s.app.RemoveProduct(id)
	return nil
}

// StartPreorder opens a preorder window of days, clamped to 7..14.
func (s *Service) StartPreorder(ctx context.Context, actor models.Actor, id string, days int) (models.Product, error) {
	if !actor.Admin {
		return models.Product{}, models.ErrForbidden
	}
	unlock := s.lockProduct(id)
	defer unlock()

	p, err := s.Product(ctx, id)
	if err != nil {
		return p, err
	}
	now := s.now()
	p.Preorder = true
	p.PreorderDays = models.ClampPreorderDays(days)
	p.PreorderStart = now.UnixMilli()
	p.UpdatedAt = now
	err = s.store.Merge(ctx, productPath(id), map[string]any{
		"preorder":      true,
		"preorderDays":  p.PreorderDays,
		"preorderStart": p.PreorderStart,
		"updatedAt":     now,
	})
	if err != nil {
		return p, fmt.Errorf("commerce: start preorder %s: %w", id, err)
	}
	s.app.PutProduct(p)
	return p, nil
}

// SweepPreorders ends every preorder window in products whose remaining
// days reached zero. It returns the ids it changed.
func (s *Service) SweepPreorders(ctx context.Context, products []models.Product) ([]string, error) {
	now := s.now()
	var ended []string
	for _, p := range products {
		if !p.Preorder || p.PreorderRemaining(now) > 0 {
			continue
		}
		err := s.store.Merge(ctx, productPath(p.ID), map[string]any{
			"preorder":      nil,
			"preorderDays":  nil,
			"preorderStart": nil,
			"updatedAt":     now,
		})
		if err != nil {
			return ended, fmt.Errorf("commerce: end preorder %s: %w", p.ID, err)
		}
		ended = append(ended, p.ID)
	}
	for _, p := range products {
		if slices.Contains(ended, p.ID) {
			p.Preorder, p.PreorderDays, p.PreorderStart = false, 0, 0
			p.UpdatedAt = now
			s.app.PutProduct(p)
		}
	}
	return ended, nil
}

// AttachSweeper runs SweepPreorders after every products change. The
// returned func detaches it.
func (s *Service) AttachSweeper(app *state.App) func() {
	return app.OnChange(func(snap state.Snapshot, kind state.Kind) {
		if kind != state.Products {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ended, err := s.SweepPreorders(ctx, snap.Products)
		if err != nil {
			log.Printf("[commerce] preorder sweep: %v", err)
		}
		for _, id := range ended {
			log.Printf("[commerce] preorder window closed for %s", id)
		}
	})
}
