package commerce

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"caintamart/models"
	"caintamart/utils"
)

var contactPattern = regexp.MustCompile(`^09\d{9}$`)

// CheckoutSummary is what the address step shows before an order is
// placed.
type CheckoutSummary struct {
	Lines       []models.CartItem `json:"lines"`
	Subtotal    float64           `json:"subtotal"`
	DeliveryFee float64           `json:"deliveryFee"`
	Total       float64           `json:"total"`
	Barangays   []string          `json:"barangays"`
	City        string            `json:"city"`
	Province    string            `json:"province"`
	Prefill     OrderForm         `json:"prefill"`
	Verified    bool              `json:"verified"`
}

// OrderForm is the address step input.
type OrderForm struct {
	CustomerName  string `json:"customerName"`
	ContactNumber string `json:"contactNumber"`
	Street        string `json:"street"`
	Barangay      string `json:"barangay"`
	Notes         string `json:"notes,omitempty"`
}

func profileComplete(p models.Profile) bool {
	return strings.TrimSpace(p.FullName) != "" && p.IDURL != ""
}

func (s *Service) deliveryFee(ctx context.Context) (float64, error) {
	if s.fees == nil {
		return s.app.Snapshot().DeliveryFee, nil
	}
	fee, err := s.fees.DeliveryFee(ctx)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

// Checkout prices uid's cart and returns the address step.
func (s *Service) Checkout(ctx context.Context, uid string) (CheckoutSummary, error) {
	var sum CheckoutSummary
	if uid == "" {
		return sum, ErrAuthRequired
	}
	c, err := s.Cart(ctx, uid)
	if err != nil {
		return sum, err
	}
	if len(c.Items) == 0 {
		return sum, ErrEmptyCart
	}
	u, err := s.user(ctx, uid)
	if err != nil {
		return sum, err
	}
	if !profileComplete(u.Profile) {
		return sum, ErrProfileIncomplete
	}
	fee, err := s.deliveryFee(ctx)
	if err != nil {
		return sum, err
	}

	sum.Lines = c.Items
	sum.Subtotal = c.Subtotal()
	sum.DeliveryFee = models.Round2(fee)
	sum.Total = models.Round2(sum.Subtotal + sum.DeliveryFee)
	sum.Barangays = append([]string(nil), models.Barangays...)
	sum.City = models.ServiceCity
	sum.Province = models.ServiceProvince
	sum.Verified = u.Profile.Verified
	sum.Prefill = OrderForm{
		CustomerName:  u.Profile.FullName,
		ContactNumber: u.Profile.Phone,
		Street:        u.Profile.Street,
		Barangay:      u.Profile.Barangay,
	}
	return sum, nil
}

func (f OrderForm) validate() error {
	if !contactPattern.MatchString(strings.TrimSpace(f.ContactNumber)) {
		return models.Invalid("contactNumber", "must be 11 digits starting with 09")
	}
	if !models.IsServiceableBarangay(f.Barangay) {
		return models.Invalid("barangay", "we only deliver within "+models.ServiceCity)
	}
	if strings.TrimSpace(f.Street) == "" {
		return models.Invalid("street", "is required")
	}
	return nil
}

// PlaceOrder turns uid's cart into an order and clears the cart. Stock
// already taken by the cart is not returned.
func (s *Service) PlaceOrder(ctx context.Context, uid string, form OrderForm) (models.Order, error) {
	var o models.Order
	if uid == "" {
		return o, ErrAuthRequired
	}
	if err := form.validate(); err != nil {
		return o, err
	}

	unlockCart := s.lockCart(uid)
	defer unlockCart()

	c, err := s.readCart(ctx, uid)
	if err != nil {
		return o, err
	}
	if len(c.Items) == 0 {
		return o, ErrEmptyCart
	}
	u, err := s.user(ctx, uid)
	if err != nil {
		return o, err
	}
	if !profileComplete(u.Profile) {
		return o, ErrProfileIncomplete
	}
	fee, err := s.deliveryFee(ctx)
	if err != nil {
		return o, err
	}

	now := s.now()
	status, kind := models.StatusPreparing, models.OrderRegular
	if c.HasPreorder() {
		status, kind = models.StatusPreOrderReceived, models.OrderPreOrder
	}
	name := strings.TrimSpace(form.CustomerName)
	if name == "" {
		name = u.Profile.FullName
	}
	o = models.Order{
		ID:            "ORD-" + utils.ShortID(8),
		UserID:        uid,
		Items:         c.Clone().Items,
		Subtotal:      c.Subtotal(),
		DeliveryFee:   models.Round2(fee),
		Status:        status,
		Type:          kind,
		CustomerName:  name,
		Email:         u.Email,
		ContactNumber: strings.TrimSpace(form.ContactNumber),
		Address: models.Address{
			Street:   strings.TrimSpace(form.Street),
			Barangay: form.Barangay,
			City:     models.ServiceCity,
			Province: models.ServiceProvince,
		},
		Notes:     strings.TrimSpace(form.Notes),
		Profile:   u.Profile,
		History:   []models.StatusChange{{Status: status, ChangedBy: name, ChangedAt: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Total = models.Round2(o.Subtotal + o.DeliveryFee)

	if err := s.store.Write(ctx, orderPath(o.ID), o); err != nil {
		return o, fmt.Errorf("commerce: write order: %w", err)
	}
	c.Items = nil
	if err := s.saveCart(ctx, c); err != nil {
		log.Printf("[commerce] order %s placed but cart %s not cleared: %v", o.ID, uid, err)
	}
	log.Printf("[commerce] order %s placed by %s, total %.2f", o.ID, uid, o.Total)
	return o, nil
}
