package view

import "caintamart/models"

type CartLine struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	Unit           string  `json:"unit,omitempty"`
	Price          float64 `json:"price"`
	PriceLabel     string  `json:"priceLabel"`
	Quantity       int     `json:"quantity"`
	Preordered     bool    `json:"preordered"`
	LineTotal      float64 `json:"lineTotal"`
	LineTotalLabel string  `json:"lineTotalLabel"`
}

type CartView struct {
	Lines            []CartLine `json:"lines"`
	Count            int        `json:"count"`
	Subtotal         float64    `json:"subtotal"`
	SubtotalLabel    string     `json:"subtotalLabel"`
	DeliveryFee      float64    `json:"deliveryFee"`
	DeliveryFeeLabel string     `json:"deliveryFeeLabel"`
	Total            float64    `json:"total"`
	TotalLabel       string     `json:"totalLabel"`
	Empty            bool       `json:"empty"`
	HasPreorder      bool       `json:"hasPreorder"`
}

func Cart(c models.Cart, fee float64) CartView {
	v := CartView{Lines: make([]CartLine, 0, len(c.Items))}
	for _, it := range c.Items {
		v.Lines = append(v.Lines, CartLine{
			ProductID:      it.ProductID,
			Name:           it.Name,
			Unit:           it.Unit,
			Price:          it.Price,
			PriceLabel:     PriceLabel(it.Price),
			Quantity:       it.Quantity,
			Preordered:     it.Preordered,
			LineTotal:      it.LineTotal(),
			LineTotalLabel: PriceLabel(it.LineTotal()),
		})
	}
	v.Count = c.Count()
	v.Empty = len(c.Items) == 0
	v.HasPreorder = c.HasPreorder()
	v.Subtotal = c.Subtotal()
	v.DeliveryFee = models.Round2(fee)
	v.Total = models.Round2(v.Subtotal + v.DeliveryFee)
	v.SubtotalLabel = PriceLabel(v.Subtotal)
	v.DeliveryFeeLabel = PriceLabel(v.DeliveryFee)
	v.TotalLabel = PriceLabel(v.Total)
	return v
}
