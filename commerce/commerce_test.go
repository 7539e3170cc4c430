package commerce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	admin   = models.Actor{ID: "admin-1", Email: "admin@caintamart.ph", Admin: true}
)

type fixture struct {
	ctx   context.Context
	store *docstore.Memory
	app   *state.App
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemory()
	app := state.New(50)
	svc := NewService(store, app, nil)
	svc.SetClock(func() time.Time { return testNow })
	return &fixture{ctx: context.Background(), store: store, app: app, svc: svc}
}

func (f *fixture) product(t *testing.T, id string, price float64, qty int) {
	t.Helper()
	_, err := f.svc.ImportProduct(f.ctx, id, ProductInput{
		Name: "Product " + id, Price: price, Quantity: qty, Unit: "kg", Freshness: 90,
	})
	require.NoError(t, err)
}

func (f *fixture) preorderProduct(t *testing.T, id string, price float64, qty int) {
	t.Helper()
	_, err := f.svc.ImportProduct(f.ctx, id, ProductInput{
		Name: "Product " + id, Price: price, Quantity: qty, Unit: "kg", Freshness: 90, PreorderDays: 10,
	})
	require.NoError(t, err)
}

func (f *fixture) user(t *testing.T, uid string, complete bool) {
	t.Helper()
	u := models.User{UserID: uid, Email: uid + "@mail.ph", Role: "user"}
	if complete {
		u.Profile = models.Profile{FullName: "Maria Santos", Phone: "09171234567", IDURL: "/uploads/id.jpg"}
	}
	require.NoError(t, f.store.Write(f.ctx, userPath(uid), u))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.svc.Product(f.ctx, id)
	require.NoError(t, err)
	return p.Quantity
}

func validForm() OrderForm {
	return OrderForm{
		CustomerName:  "Maria Santos",
		ContactNumber: "09171234567",
		Street:        "12 Rizal St",
		Barangay:      models.Barangays[0],
	}
}

func TestAddToCartMovesStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)

	c, err := f.svc.AddToCart(f.ctx, "u1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 7, f.stock(t, "p1"))

	c, err = f.svc.AddToCart(f.ctx, "u1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "same product merges into one line")
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, 5, f.stock(t, "p1"))

	_, err = f.svc.AddToCart(f.ctx, "u1", "p1", 6)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 5, f.stock(t, "p1"))

	p, ok := f.app.Snapshot().Product("p1")
	require.True(t, ok)
	assert.Equal(t, 5, p.Quantity, "state mirrors the stock write")
	sc, ok := f.app.Snapshot().Cart("u1")
	require.True(t, ok)
	assert.Equal(t, 5, sc.Count())
}

func TestAddToCartErrors(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)
	f.preorderProduct(t, "pre", 80, 0)

	_, err := f.svc.AddToCart(f.ctx, "u1", "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.AddToCart(f.ctx, "", "p1", 1)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.svc.AddToCart(f.ctx, "u1", "pre", 1)
	assert.ErrorIs(t, err, ErrPreorderOnly)

	_, err = f.svc.AddToCart(f.ctx, "u1", "p1", 0)
	assert.True(t, models.IsValidation(err))

	assert.Equal(t, 10, f.stock(t, "p1"))
}

func TestRemoveRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)

	_, err := f.svc.AddToCart(f.ctx, "u1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, "p1"))

	c, err := f.svc.RemoveCartItem(f.ctx, "u1", "p1", false)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 10, f.stock(t, "p1"))

	_, err = f.svc.RemoveCartItem(f.ctx, "u1", "p1", false)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestChangeQuantityNetsOut(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)

	_, err := f.svc.AddToCart(f.ctx, "u1", "p1", 2)
	require.NoError(t, err)
	require.Equal(t, 8, f.stock(t, "p1"))

	_, err = f.svc.ChangeCartItemQuantity(f.ctx, "u1", "p1", false, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, "p1"))

	c, err := f.svc.ChangeCartItemQuantity(f.ctx, "u1", "p1", false, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 9, f.stock(t, "p1"), "same as a single change from 2 to 1")

	_, err = f.svc.ChangeCartItemQuantity(f.ctx, "u1", "p1", false, 100)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 9, f.stock(t, "p1"))
}

// cartWriteFails fails every cart write while on is set.
type cartWriteFails struct {
	*docstore.Memory
	on bool
}

func (s *cartWriteFails) Write(ctx context.Context, path string, value any) error {
	if s.on && strings.HasPrefix(path, "carts/") {
		return errors.New("disk full")
	}
	return s.Memory.Write(ctx, path, value)
}

func TestFailedCartWriteRestoresStock(t *testing.T) {
	ctx := context.Background()
	store := &cartWriteFails{Memory: docstore.NewMemory()}
	app := state.New(50)
	svc := NewService(store, app, nil)
	svc.SetClock(func() time.Time { return testNow })
	_, err := svc.ImportProduct(ctx, "p1", ProductInput{Name: "Okra", Price: 20, Quantity: 10, Unit: "kg"})
	require.NoError(t, err)
	stock := func() int {
		p, err := svc.Product(ctx, "p1")
		require.NoError(t, err)
		sp, ok := app.Snapshot().Product("p1")
		require.True(t, ok)
		assert.Equal(t, p.Quantity, sp.Quantity, "state follows the store")
		return p.Quantity
	}

	store.on = true
	_, err = svc.AddToCart(ctx, "u1", "p1", 3)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 10, stock())

	store.on = false
	_, err = svc.AddToCart(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, stock())

	store.on = true
	_, err = svc.ChangeCartItemQuantity(ctx, "u1", "p1", false, 6)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 6, stock())

	_, err = svc.RemoveCartItem(ctx, "u1", "p1", false)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 6, stock())

	store.on = false
	c, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.Items[0].Quantity)
}

func TestPreorderLinesLeaveStockAlone(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)
	f.preorderProduct(t, "pre", 80, 3)

	_, err := f.svc.PreOrderItem(f.ctx, "u1", "p1", 1)
	assert.ErrorIs(t, err, ErrNotPreorderProduct)

	c, err := f.svc.PreOrderItem(f.ctx, "u1", "pre", 5)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].Preordered)
	assert.Equal(t, 3, f.stock(t, "pre"))

	_, err = f.svc.ChangeCartItemQuantity(f.ctx, "u1", "pre", true, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, "pre"))

	c, err = f.svc.RemoveCartItem(f.ctx, "u1", "pre", true)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 3, f.stock(t, "pre"))
}

func TestConcurrentAddsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 40, 10)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := []string{"u1", "u2", "u3"}[i%3]
			if _, err := f.svc.AddToCart(f.ctx, uid, "p1", 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrOutOfStock)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, f.stock(t, "p1"))
	total := 0
	for _, uid := range []string{"u1", "u2", "u3"} {
		c, err := f.svc.Cart(f.ctx, uid)
		require.NoError(t, err)
		total += c.Count()
	}
	assert.Equal(t, 10, total)
}

func TestCheckoutAndPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.app.SetDeliveryFee(25)
	f.product(t, "p1", 100, 10)
	f.product(t, "p2", 15, 10)
	f.user(t, "u1", true)

	_, err := f.svc.AddToCart(f.ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(f.ctx, "u1", "p2", 1)
	require.NoError(t, err)

	sum, err := f.svc.Checkout(f.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 215.0, sum.Subtotal)
	assert.Equal(t, 25.0, sum.DeliveryFee)
	assert.Equal(t, 240.0, sum.Total)
	assert.Len(t, sum.Barangays, 8)
	assert.Equal(t, "Maria Santos", sum.Prefill.CustomerName)

	o, err := f.svc.PlaceOrder(f.ctx, "u1", validForm())
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, o.ID)
	assert.Equal(t, 240.0, o.Total)
	assert.Equal(t, models.StatusPreparing, o.Status)
	assert.Equal(t, models.OrderRegular, o.Type)
	assert.Equal(t, models.ServiceCity, o.Address.City)
	require.Len(t, o.History, 1)

	var stored models.Order
	require.NoError(t, f.store.Read(f.ctx, orderPath(o.ID), &stored))
	assert.Equal(t, 240.0, stored.Total)
	assert.Len(t, stored.Items, 2)

	c, err := f.svc.Cart(f.ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 8, f.stock(t, "p1"), "placing an order does not touch stock again")
}

func TestPlaceOrderRejectsBadForm(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 10)
	f.user(t, "u1", true)
	_, err := f.svc.AddToCart(f.ctx, "u1", "p1", 1)
	require.NoError(t, err)

	form := validForm()
	form.Barangay = "Poblacion, Makati"
	_, err = f.svc.PlaceOrder(f.ctx, "u1", form)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "barangay", ve.Field)

	form = validForm()
	form.ContactNumber = "0917123"
	_, err = f.svc.PlaceOrder(f.ctx, "u1", form)
	assert.True(t, models.IsValidation(err))

	orders, err := f.store.List(f.ctx, "orders")
	require.NoError(t, err)
	assert.Empty(t, orders)
	c, err := f.svc.Cart(f.ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestCheckoutPreconditions(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", 100, 10)
	f.user(t, "complete", true)
	f.user(t, "bare", false)

	_, err := f.svc.Checkout(f.ctx, "")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.svc.Checkout(f.ctx, "complete")
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = f.svc.PlaceOrder(f.ctx, "complete", validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.svc.AddToCart(f.ctx, "bare", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.Checkout(f.ctx, "bare")
	assert.ErrorIs(t, err, ErrProfileIncomplete)
	_, err = f.svc.PlaceOrder(f.ctx, "bare", validForm())
	assert.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestPreorderCartPlacesPreorder(t *testing.T) {
	f := newFixture(t)
	f.preorderProduct(t, "pre", 80, 0)
	f.user(t, "u1", true)

	_, err := f.svc.PreOrderItem(f.ctx, "u1", "pre", 2)
	require.NoError(t, err)
	o, err := f.svc.PlaceOrder(f.ctx, "u1", validForm())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreOrderReceived, o.Status)
	assert.Equal(t, models.OrderPreOrder, o.Type)
	assert.Equal(t, 210.0, o.Total)
}

func placedOrder(t *testing.T, f *fixture) models.Order {
	t.Helper()
	f.product(t, "p1", 100, 10)
	f.user(t, "u1", true)
	_, err := f.svc.AddToCart(f.ctx, "u1", "p1", 1)
	require.NoError(t, err)
	o, err := f.svc.PlaceOrder(f.ctx, "u1", validForm())
	require.NoError(t, err)
	return o
}

func TestOrderStatusOnlyMovesForward(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f)

	_, err := f.svc.AdvanceOrder(f.ctx, models.Actor{ID: "u1"}, o.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	o, err = f.svc.AdvanceOrder(f.ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOutForDelivery, o.Status)

	_, err = f.svc.SetOrderStatus(f.ctx, admin, o.ID, models.StatusPreparing)
	assert.True(t, models.IsValidation(err))
	_, err = f.svc.SetOrderStatus(f.ctx, admin, o.ID, "Lost")
	assert.True(t, models.IsValidation(err))

	o, err = f.svc.SetOrderStatus(f.ctx, admin, o.ID, models.StatusDelivered)
	require.NoError(t, err)
	_, err = f.svc.AdvanceOrder(f.ctx, admin, o.ID)
	assert.True(t, models.IsValidation(err))

	stored, err := f.svc.Order(f.ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	require.Len(t, stored.History, 3)
	assert.Equal(t, admin.Email, stored.History[2].ChangedBy)
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f)

	_, err := f.svc.Order(f.ctx, models.Actor{ID: "u1"}, o.ID)
	assert.NoError(t, err)
	_, err = f.svc.Order(f.ctx, models.Actor{ID: "someone-else"}, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.Order(f.ctx, models.Actor{}, o.ID)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = f.svc.Order(f.ctx, admin, o.ID)
	assert.NoError(t, err)
}

func TestDeleteWritesLogFirst(t *testing.T) {
	f := newFixture(t)
	o := placedOrder(t, f)

	require.ErrorIs(t, f.svc.DeleteOrder(f.ctx, models.Actor{ID: "u1"}, o.ID), models.ErrForbidden)
	require.NoError(t, f.svc.DeleteOrder(f.ctx, admin, o.ID))
	require.NoError(t, f.svc.DeleteProduct(f.ctx, admin, "p1"))

	err := f.store.Read(f.ctx, orderPath(o.ID), &models.Order{})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	_, ok := f.app.Snapshot().Product("p1")
	assert.False(t, ok)

	recs, err := f.store.List(f.ctx, "deleteLogs")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	byType := map[string]models.DeleteLog{}
	for _, r := range recs {
		var l models.DeleteLog
		require.NoError(t, r.Decode(&l))
		byType[l.EntityType] = l
	}
	assert.Equal(t, o.ID, byType["order"].EntityID)
	assert.Equal(t, admin.Email, byType["order"].DeletedBy)
	assert.Equal(t, 100.0, byType["order"].Snapshot["subtotal"])
	assert.Equal(t, "p1", byType["product"].EntityID)
}

func TestProductValidation(t *testing.T) {
	f := newFixture(t)
	in := ProductInput{Name: "Okra", Price: 35, Quantity: 4, Unit: "bundle", Freshness: 70}

	_, err := f.svc.CreateProduct(f.ctx, models.Actor{ID: "u1"}, in)
	assert.ErrorIs(t, err, models.ErrForbidden)

	bad := in
	bad.Price = 0
	_, err = f.svc.CreateProduct(f.ctx, admin, bad)
	assert.True(t, models.IsValidation(err))
	bad = in
	bad.Freshness = 101
	_, err = f.svc.CreateProduct(f.ctx, admin, bad)
	assert.True(t, models.IsValidation(err))

	in.PreorderDays = 30
	p, err := f.svc.CreateProduct(f.ctx, admin, in)
	require.NoError(t, err)
	assert.True(t, p.Preorder)
	assert.Equal(t, models.MaxPreorderDays, p.PreorderDays)
	assert.Equal(t, testNow.UnixMilli(), p.PreorderStart)

	p, err = f.svc.StartPreorder(f.ctx, admin, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.MinPreorderDays, p.PreorderDays)
}

func TestSweepEndsExpiredPreorders(t *testing.T) {
	f := newFixture(t)
	f.preorderProduct(t, "fresh", 80, 0)
	f.preorderProduct(t, "stale", 80, 0)
	require.NoError(t, f.store.Merge(f.ctx, productPath("stale"), map[string]any{
		"preorderStart": testNow.Add(-15 * 24 * time.Hour).UnixMilli(),
		"preorderDays":  14,
	}))
	stale, err := f.svc.Product(f.ctx, "stale")
	require.NoError(t, err)

	detach := f.svc.AttachSweeper(f.app)
	defer detach()
	f.app.PutProduct(stale)

	p, err := f.svc.Product(f.ctx, "stale")
	require.NoError(t, err)
	assert.False(t, p.Preorder)
	assert.Zero(t, p.PreorderDays)
	sp, ok := f.app.Snapshot().Product("stale")
	require.True(t, ok)
	assert.False(t, sp.Preorder)

	p, err = f.svc.Product(f.ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, p.Preorder)
	assert.Equal(t, 10, p.PreorderRemaining(testNow))
}
