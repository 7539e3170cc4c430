// Package state holds the process-wide application state. Every mutation
// builds a new immutable Snapshot and notifies listeners with the Kind of
// data that changed.
package state

import (
	"sort"
	"sync"

	"caintamart/models"
)

type Kind string

const (
	Products Kind = "products"
	Orders   Kind = "orders"
	Chats    Kind = "chats"
	Settings Kind = "settings"
	Carts    Kind = "carts"
)

// Snapshot is never mutated after it is published. Callers must not modify
// the slices or maps it exposes.
type Snapshot struct {
	Version     uint64
	Products    []models.Product
	Orders      []models.Order
	Threads     []models.ChatThread
	DeliveryFee float64
	Carts       map[string]models.Cart

	productIdx map[string]int
	orderIdx   map[string]int
	threadIdx  map[string]int
}

func (s Snapshot) Product(id string) (models.Product, bool) {
	i, ok := s.productIdx[id]
	if !ok {
		return models.Product{}, false
	}
	return s.Products[i], true
}

func (s Snapshot) Order(id string) (models.Order, bool) {
	i, ok := s.orderIdx[id]
	if !ok {
		return models.Order{}, false
	}
	return s.Orders[i], true
}

func (s Snapshot) Thread(id string) (models.ChatThread, bool) {
	i, ok := s.threadIdx[id]
	if !ok {
		return models.ChatThread{}, false
	}
	return s.Threads[i], true
}

// Cart returns the cached cart for uid, or an empty one.
func (s Snapshot) Cart(uid string) (models.Cart, bool) {
	c, ok := s.Carts[uid]
	if !ok {
		return models.Cart{UserID: uid}, false
	}
	return c, true
}

// OrdersFor returns the orders owned by uid, newest first.
func (s Snapshot) OrdersFor(uid string) []models.Order {
	var out []models.Order
	for _, o := range s.Orders {
		if o.UserID == uid {
			out = append(out, o)
		}
	}
	return out
}

type listener struct {
	id int
	fn func(Snapshot, Kind)
}

// App owns the current Snapshot.
type App struct {
	mu        sync.RWMutex
	snap      Snapshot
	nextID    int
	listeners []listener
}

func New(deliveryFee float64) *App {
	return &App{snap: Snapshot{
		DeliveryFee: deliveryFee,
		Carts:       map[string]models.Cart{},
		productIdx:  map[string]int{},
		orderIdx:    map[string]int{},
		threadIdx:   map[string]int{},
	}}
}

func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Restore replaces the current snapshot wholesale. Listeners are not
// notified.
func (a *App) Restore(s Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = s
}

// OnChange registers fn to run after every committed mutation. The returned
// func unregisters it.
func (a *App) OnChange(fn func(Snapshot, Kind)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listener{id: id, fn: fn})
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

// commit applies mutate to a copy of the current snapshot and notifies
// listeners outside the lock.
func (a *App) commit(kind Kind, mutate func(*Snapshot)) {
	a.mu.Lock()
	next := a.snap
	mutate(&next)
	next.Version++
	a.snap = next
	ls := append([]listener(nil), a.listeners...)
	a.mu.Unlock()

	for _, l := range ls {
		l.fn(next, kind)
	}
}

func (a *App) SetProducts(ps []models.Product) {
	list := append([]models.Product(nil), ps...)
	a.commit(Products, func(s *Snapshot) {
		s.Products = list
		s.productIdx = indexProducts(list)
	})
}

// PutProduct replaces or adds a single product locally ahead of the
// gateway echo.
func (a *App) PutProduct(p models.Product) {
	a.commit(Products, func(s *Snapshot) {
		list := append([]models.Product(nil), s.Products...)
		if i, ok := s.productIdx[p.ID]; ok {
			list[i] = p
		} else {
			list = append(list, p)
		}
		s.Products = list
		s.productIdx = indexProducts(list)
	})
}

func (a *App) RemoveProduct(id string) {
	a.commit(Products, func(s *Snapshot) {
		list := make([]models.Product, 0, len(s.Products))
		for _, p := range s.Products {
			if p.ID != id {
				list = append(list, p)
			}
		}
		s.Products = list
		s.productIdx = indexProducts(list)
	})
}

// SetOrders stores orders newest first.
func (a *App) SetOrders(os []models.Order) {
	list := append([]models.Order(nil), os...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	idx := make(map[string]int, len(list))
	for i, o := range list {
		idx[o.ID] = i
	}
	a.commit(Orders, func(s *Snapshot) {
		s.Orders = list
		s.orderIdx = idx
	})
}

// SetThreads stores an already projected and sorted thread list.
func (a *App) SetThreads(ts []models.ChatThread) {
	list := append([]models.ChatThread(nil), ts...)
	idx := make(map[string]int, len(list))
	for i, t := range list {
		idx[t.ID] = i
	}
	a.commit(Chats, func(s *Snapshot) {
		s.Threads = list
		s.threadIdx = idx
	})
}

func (a *App) SetDeliveryFee(fee float64) {
	a.commit(Settings, func(s *Snapshot) { s.DeliveryFee = fee })
}

func (a *App) PutCart(c models.Cart) {
	c = c.Clone()
	a.commit(Carts, func(s *Snapshot) {
		carts := make(map[string]models.Cart, len(s.Carts)+1)
		for k, v := range s.Carts {
			carts[k] = v
		}
		carts[c.UserID] = c
		s.Carts = carts
	})
}

func indexProducts(ps []models.Product) map[string]int {
	idx := make(map[string]int, len(ps))
	for i, p := range ps {
		idx[p.ID] = i
	}
	return idx
}
