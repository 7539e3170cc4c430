package models

import (
	"math"
	"time"
)

// Farmer is the grower a product is sourced from.
type Farmer struct {
	Name    string `json:"name" bson:"name"`
	Contact string `json:"contact,omitempty" bson:"contact,omitempty"`
}

// Product is a catalog entry. Preorder, PreorderDays and PreorderStart are
// only present while the product is inside its preorder window.
type Product struct {
	ID            string    `json:"id" bson:"id"`
	Name          string    `json:"name" bson:"name"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	Price         float64   `json:"price" bson:"price"`
	Quantity      int       `json:"quantity" bson:"quantity"`
	Unit          string    `json:"unit" bson:"unit"`
	Origin        string    `json:"origin" bson:"origin"`
	Farmer        Farmer    `json:"farmer" bson:"farmer"`
	ImageURL      string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Freshness     int       `json:"freshness" bson:"freshness"`
	Preorder      bool      `json:"preorder,omitempty" bson:"preorder,omitempty"`
	PreorderDays  int       `json:"preorderDays,omitempty" bson:"preorderDays,omitempty"`
	PreorderStart int64     `json:"preorderStart,omitempty" bson:"preorderStart,omitempty"` // unix millis
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

const (
	MinPreorderDays = 7
	MaxPreorderDays = 14
)

// ClampPreorderDays bounds a preorder window to 7..14 days.
func ClampPreorderDays(days int) int {
	if days < MinPreorderDays {
		return MinPreorderDays
	}
	if days > MaxPreorderDays {
		return MaxPreorderDays
	}
	return days
}

// FreshnessTier is the indicator derived from a 0-100 freshness score.
type FreshnessTier string

const (
	FreshnessFresh FreshnessTier = "fresh"
	FreshnessGood  FreshnessTier = "good"
	FreshnessAging FreshnessTier = "aging"
)

func TierFor(score int) FreshnessTier {
	switch {
	case score >= 80:
		return FreshnessFresh
	case score >= 50:
		return FreshnessGood
	default:
		return FreshnessAging
	}
}

const dayMillis = 86400000

// RemainingDays is the whole number of days, rounded up, left in a preorder
// window that began at startMillis and lasts days.
func RemainingDays(startMillis int64, days int, now time.Time) int {
	end := startMillis + int64(days)*dayMillis
	left := end - now.UnixMilli()
	return int(math.Ceil(float64(left) / dayMillis))
}

// PreorderRemaining is RemainingDays for p's own window.
func (p Product) PreorderRemaining(now time.Time) int {
	return RemainingDays(p.PreorderStart, p.PreorderDays, now)
}
