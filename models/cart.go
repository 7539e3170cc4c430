package models

import (
	"math"
	"time"
)

// CartItem is a line in a user's cart. Name, Price and Unit are a snapshot
// taken when the line was created. Lines are keyed by (ProductID, Preordered).
type CartItem struct {
	ProductID  string    `json:"productId" bson:"productId"`
	Name       string    `json:"name" bson:"name"`
	Price      float64   `json:"price" bson:"price"`
	Unit       string    `json:"unit,omitempty" bson:"unit,omitempty"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Preordered bool      `json:"preordered" bson:"preordered"`
	AddedAt    time.Time `json:"addedAt" bson:"addedAt"`
}

func (i CartItem) LineTotal() float64 {
	return Round2(i.Price * float64(i.Quantity))
}

// Cart is stored at carts/{uid}.
type Cart struct {
	UserID    string     `json:"userId" bson:"userId"`
	Items     []CartItem `json:"items" bson:"items"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Find returns the index of the line for (productID, preordered) or -1.
func (c Cart) Find(productID string, preordered bool) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.Preordered == preordered {
			return i
		}
	}
	return -1
}

func (c Cart) Subtotal() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return Round2(sum)
}

func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) HasPreorder() bool {
	for _, it := range c.Items {
		if it.Preordered {
			return true
		}
	}
	return false
}

// Clone returns a copy whose Items slice can be mutated freely.
func (c Cart) Clone() Cart {
	out := c
	out.Items = append([]CartItem(nil), c.Items...)
	return out
}

// Round2 rounds a peso amount to centavos.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
