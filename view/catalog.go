package view

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"caintamart/models"
	"caintamart/state"
)

const LowStock = 5

type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortFreshness SortKey = "freshness"
)

// Filters are the catalog controls a shopper can set.
type Filters struct {
	Search       string
	Origin       string
	PreorderOnly bool
	InStockOnly  bool
	Sort         SortKey
}

func FiltersFromQuery(q url.Values) Filters {
	return Filters{
		Search:       strings.TrimSpace(q.Get("q")),
		Origin:       strings.TrimSpace(q.Get("origin")),
		PreorderOnly: q.Get("preorder") == "true" || q.Get("preorder") == "1",
		InStockOnly:  q.Get("instock") == "true" || q.Get("instock") == "1",
		Sort:         SortKey(q.Get("sort")),
	}
}

type ProductCard struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Price         float64              `json:"price"`
	PriceLabel    string               `json:"priceLabel"`
	Unit          string               `json:"unit"`
	Origin        string               `json:"origin"`
	Farmer        models.Farmer        `json:"farmer"`
	ImageURL      string               `json:"imageUrl,omitempty"`
	Quantity      int                  `json:"quantity"`
	StockLabel    string               `json:"stockLabel"`
	InStock       bool                 `json:"inStock"`
	Freshness     int                  `json:"freshness"`
	FreshnessTier models.FreshnessTier `json:"freshnessTier"`
	Preorder      bool                 `json:"preorder"`
	DaysLeft      int                  `json:"daysLeft,omitempty"`
	Action        string               `json:"action"`
}

type CatalogView struct {
	Cards   []ProductCard `json:"cards"`
	Origins []string      `json:"origins"`
	Total   int           `json:"total"`
	Filters Filters       `json:"-"`
}

func Card(p models.Product, now time.Time) ProductCard {
	c := ProductCard{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		PriceLabel:    PriceLabel(p.Price),
		Unit:          p.Unit,
		Origin:        p.Origin,
		Farmer:        p.Farmer,
		ImageURL:      p.ImageURL,
		Quantity:      p.Quantity,
		InStock:       p.Quantity > 0,
		Freshness:     p.Freshness,
		FreshnessTier: models.TierFor(p.Freshness),
		Preorder:      p.Preorder,
	}
	switch {
	case p.Preorder:
		c.DaysLeft = p.PreorderRemaining(now)
		c.StockLabel = fmt.Sprintf("Pre-order, %d day(s) left", c.DaysLeft)
		c.Action = "preorder"
	case p.Quantity <= 0:
		c.StockLabel = "Out of stock"
		c.Action = "none"
	case p.Quantity < LowStock:
		c.StockLabel = fmt.Sprintf("Only %d left", p.Quantity)
		c.Action = "add"
	default:
		c.StockLabel = fmt.Sprintf("%d %s available", p.Quantity, p.Unit)
		c.Action = "add"
	}
	return c
}

// Catalog filters and sorts the snapshot's products.
func Catalog(s state.Snapshot, f Filters, now time.Time) CatalogView {
	needle := strings.ToLower(f.Search)
	origins := map[string]bool{}
	var picked []models.Product
	for _, p := range s.Products {
		if p.Origin != "" {
			origins[p.Origin] = true
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		if f.Origin != "" && !strings.EqualFold(p.Origin, f.Origin) {
			continue
		}
		if f.PreorderOnly && !p.Preorder {
			continue
		}
		if f.InStockOnly && (p.Preorder || p.Quantity <= 0) {
			continue
		}
		picked = append(picked, p)
	}
	sortProducts(picked, f.Sort)

	v := CatalogView{Cards: make([]ProductCard, 0, len(picked)), Filters: f}
	for _, p := range picked {
		v.Cards = append(v.Cards, Card(p, now))
	}
	for o := range origins {
		v.Origins = append(v.Origins, o)
	}
	sort.Strings(v.Origins)
	v.Total = len(v.Cards)
	return v
}

func matches(p models.Product, needle string) bool {
	for _, hay := range []string{p.Name, p.Origin, p.Farmer.Name} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func sortProducts(ps []models.Product, key SortKey) {
	var less func(a, b models.Product) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case SortFreshness:
		less = func(a, b models.Product) bool { return a.Freshness > b.Freshness }
	case SortName:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}
