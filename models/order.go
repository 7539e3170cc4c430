package models

import "time"

type OrderStatus string

const (
	StatusPreOrderReceived OrderStatus = "Pre-Order Received"
	StatusPreparing        OrderStatus = "Preparing Order"
	StatusOutForDelivery   OrderStatus = "Out for Delivery"
	StatusDelivered        OrderStatus = "Delivered"
)

// StatusProgression is the only order in which an order may move.
var StatusProgression = []OrderStatus{
	StatusPreOrderReceived,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
}

// Rank returns the position of s in StatusProgression, or -1.
func (s OrderStatus) Rank() int {
	for i, st := range StatusProgression {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the status after s and false when s is terminal or unknown.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.Rank()
	if r < 0 || r == len(StatusProgression)-1 {
		return s, false
	}
	return StatusProgression[r+1], true
}

type OrderType string

const (
	OrderRegular  OrderType = "regular"
	OrderPreOrder OrderType = "pre-order"
)

type Address struct {
	Street   string `json:"street" bson:"street"`
	Barangay string `json:"barangay" bson:"barangay"`
	City     string `json:"city" bson:"city"`
	Province string `json:"province" bson:"province"`
}

type StatusChange struct {
	Status    OrderStatus `json:"status" bson:"status"`
	ChangedBy string      `json:"changedBy" bson:"changedBy"`
	ChangedAt time.Time   `json:"changedAt" bson:"changedAt"`
}

// Order is created once from a cart and never re-priced.
type Order struct {
	ID            string         `json:"id" bson:"id"`
	UserID        string         `json:"userId" bson:"userId"`
	Items         []CartItem     `json:"items" bson:"items"`
	Subtotal      float64        `json:"subtotal" bson:"subtotal"`
	DeliveryFee   float64        `json:"deliveryFee" bson:"deliveryFee"`
	Total         float64        `json:"total" bson:"total"`
	Status        OrderStatus    `json:"status" bson:"status"`
	Type          OrderType      `json:"type" bson:"type"`
	CustomerName  string         `json:"customerName" bson:"customerName"`
	Email         string         `json:"email,omitempty" bson:"email,omitempty"`
	ContactNumber string         `json:"contactNumber" bson:"contactNumber"`
	Address       Address        `json:"address" bson:"address"`
	Notes         string         `json:"notes,omitempty" bson:"notes,omitempty"`
	Profile       Profile        `json:"profile" bson:"profile"`
	History       []StatusChange `json:"history,omitempty" bson:"history,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}
