package state

import (
	"context"
	"fmt"
	"log"
	"sync"

	"caintamart/docstore"
	"caintamart/models"
)

// Loader rehydrates one slice of state from the gateway.
type Loader func(ctx context.Context) error

// Sync keeps an App in step with the gateway: one subscription per
// collection, each push re-reading that collection.
type Sync struct {
	store docstore.Store
	app   *App

	mu      sync.Mutex
	order   []string
	sources map[string]Loader
	subs    []docstore.Subscription
}

// NewSync registers loaders for products and orders. Other packages add
// their own collections with AddSource before Start.
func NewSync(store docstore.Store, app *App) *Sync {
	s := &Sync{store: store, app: app, sources: map[string]Loader{}}
	s.AddSource("products", s.loadProducts)
	s.AddSource("orders", s.loadOrders)
	return s
}

func (s *Sync) AddSource(collection string, load Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[collection]; !ok {
		s.order = append(s.order, collection)
	}
	s.sources[collection] = load
}

// Start loads every source once, then subscribes. A failed initial load is
// returned; later push failures are only logged.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	order := append([]string(nil), s.order...)
	s.mu.Unlock()

	for _, coll := range order {
		if err := s.Reload(ctx, coll); err != nil {
			return err
		}
	}
	for _, coll := range order {
		coll := coll
		sub, err := s.store.Subscribe(ctx, coll,
			func(ev docstore.ChangeEvent) {
				if err := s.Reload(ctx, coll); err != nil {
					log.Printf("[sync] reload %s after %s %s: %v", coll, ev.Op, ev.Path, err)
				}
			},
			func(err error) {
				log.Printf("[sync] subscription %s: %v", coll, err)
			})
		if err != nil {
			s.Stop()
			return fmt.Errorf("state: subscribe %s: %w", coll, err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}
	return nil
}

// Reload runs the loader for one collection.
func (s *Sync) Reload(ctx context.Context, collection string) error {
	s.mu.Lock()
	load, ok := s.sources[collection]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("state: no source for %q", collection)
	}
	return load(ctx)
}

func (s *Sync) Stop() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			log.Printf("[sync] close subscription: %v", err)
		}
	}
}

func (s *Sync) loadProducts(ctx context.Context) error {
	ps, ids, err := docstore.ListDecoded[models.Product](ctx, s.store, "products")
	if err != nil {
		return fmt.Errorf("state: load products: %w", err)
	}
	for i := range ps {
		if ps[i].ID == "" {
			ps[i].ID = ids[i]
		}
	}
	s.app.SetProducts(ps)
	return nil
}

func (s *Sync) loadOrders(ctx context.Context) error {
	os, ids, err := docstore.ListDecoded[models.Order](ctx, s.store, "orders")
	if err != nil {
		return fmt.Errorf("state: load orders: %w", err)
	}
	for i := range os {
		if os[i].ID == "" {
			os[i].ID = ids[i]
		}
	}
	s.app.SetOrders(os)
	return nil
}
