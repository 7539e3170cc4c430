package commerce

import (
	"context"
	"errors"
	"log"
	"time"

	"caintamart/models"
)

func requirePositive(qty int) error {
	if qty <= 0 {
		return models.Invalid("quantity", "must be at least 1")
	}
	return nil
}

// AddToCart moves qty units of a regular product from stock into uid's cart.
func (s *Service) AddToCart(ctx context.Context, uid, productID string, qty int) (models.Cart, error) {
	if err := requirePositive(qty); err != nil {
		return models.Cart{}, err
	}
	unlockProduct := s.lockProduct(productID)
	defer unlockProduct()

	p, err := s.Product(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}
	if uid == "" {
		return models.Cart{}, ErrAuthRequired
	}
	if p.Preorder {
		return models.Cart{}, ErrPreorderOnly
	}
	if p.Quantity <= 0 || p.Quantity < qty {
		return models.Cart{}, ErrOutOfStock
	}

	unlockCart := s.lockCart(uid)
	defer unlockCart()

	c, err := s.readCart(ctx, uid)
	if err != nil {
		return c, err
	}
	c = c.Clone()
	if i := c.Find(productID, false); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		c.Items = append(c.Items, lineFor(p, qty, false, s.now()))
	}

	return c, s.moveStock(ctx, p, p.Quantity-qty, c)
}

// moveStock writes the new stock level and then the cart. When the cart
// write fails the stock goes back to p.Quantity, so one call never leaves
// units missing from both.
func (s *Service) moveStock(ctx context.Context, p models.Product, qty int, c models.Cart) error {
	if qty == p.Quantity {
		return s.saveCart(ctx, c)
	}
	if _, err := s.saveStock(ctx, p, qty); err != nil {
		return err
	}
	if err := s.saveCart(ctx, c); err != nil {
		if _, rerr := s.saveStock(ctx, p, p.Quantity); rerr != nil {
			log.Printf("[commerce] restore stock %s to %d: %v", p.ID, p.Quantity, rerr)
		}
		return err
	}
	return nil
}

// PreOrderItem adds a preorder line. Stock is not touched.
func (s *Service) PreOrderItem(ctx context.Context, uid, productID string, qty int) (models.Cart, error) {
	if err := requirePositive(qty); err != nil {
		return models.Cart{}, err
	}
	if uid == "" {
		return models.Cart{}, ErrAuthRequired
	}
	p, err := s.Product(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}
	if !p.Preorder {
		return models.Cart{}, ErrNotPreorderProduct
	}

	unlockCart := s.lockCart(uid)
	defer unlockCart()

	c, err := s.readCart(ctx, uid)
	if err != nil {
		return c, err
	}
	c = c.Clone()
	if i := c.Find(productID, true); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		c.Items = append(c.Items, lineFor(p, qty, true, s.now()))
	}
	if err := s.saveCart(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

func lineFor(p models.Product, qty int, preordered bool, now time.Time) models.CartItem {
	return models.CartItem{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Unit:       p.Unit,
		Quantity:   qty,
		Preordered: preordered,
		AddedAt:    now,
	}
}

// ChangeCartItemQuantity sets a line's quantity, moving the difference
// between stock and cart. A quantity of zero or less removes the line.
func (s *Service) ChangeCartItemQuantity(ctx context.Context, uid, productID string, preordered bool, newQty int) (models.Cart, error) {
	if uid == "" {
		return models.Cart{}, ErrAuthRequired
	}
	if preordered {
		return s.changePreorderLine(ctx, uid, productID, newQty)
	}

	unlockProduct := s.lockProduct(productID)
	defer unlockProduct()
	unlockCart := s.lockCart(uid)
	defer unlockCart()

	c, err := s.readCart(ctx, uid)
	if err != nil {
		return c, err
	}
	i := c.Find(productID, false)
	if i < 0 {
		return c, ErrCartItemNotFound
	}
	c = c.Clone()
	old := c.Items[i].Quantity

	p, err := s.Product(ctx, productID)
	missing := errors.Is(err, ErrProductNotFound)
	if err != nil && !missing {
		return c, err
	}

	if newQty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		if missing {
			return c, s.saveCart(ctx, c)
		}
		return c, s.moveStock(ctx, p, p.Quantity+old, c)
	}
	if missing {
		return c, ErrProductNotFound
	}

	delta := newQty - old
	if delta > 0 && delta > p.Quantity {
		return c, ErrInsufficientStock
	}
	c.Items[i].Quantity = newQty
	return c, s.moveStock(ctx, p, p.Quantity-delta, c)
}

func (s *Service) changePreorderLine(ctx context.Context, uid, productID string, newQty int) (models.Cart, error) {
	unlockCart := s.lockCart(uid)
	defer unlockCart()

	c, err := s.readCart(ctx, uid)
	if err != nil {
		return c, err
	}
	i := c.Find(productID, true)
	if i < 0 {
		return c, ErrCartItemNotFound
	}
	c = c.Clone()
	if newQty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = newQty
	}
	return c, s.saveCart(ctx, c)
}

// RemoveCartItem drops a line and returns its units to stock.
func (s *Service) RemoveCartItem(ctx context.Context, uid, productID string, preordered bool) (models.Cart, error) {
	return s.ChangeCartItemQuantity(ctx, uid, productID, preordered, 0)
}
