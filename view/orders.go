package view

import (
	"caintamart/models"
	"caintamart/state"
)

type OrderRow struct {
	ID           string             `json:"id"`
	CustomerName string             `json:"customerName"`
	CreatedLabel string             `json:"createdLabel"`
	Status       models.OrderStatus `json:"status"`
	Step         int                `json:"step"`
	Steps        int                `json:"steps"`
	NextStatus   models.OrderStatus `json:"nextStatus,omitempty"`
	Type         models.OrderType   `json:"type"`
	ItemCount    int                `json:"itemCount"`
	Total        float64            `json:"total"`
	TotalLabel   string             `json:"totalLabel"`
	Address      string             `json:"address"`
	Contact      string             `json:"contact"`
}

func Row(o models.Order) OrderRow {
	r := OrderRow{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		CreatedLabel: TimeLabel(o.CreatedAt),
		Status:       o.Status,
		Step:         o.Status.Rank() + 1,
		Steps:        len(models.StatusProgression),
		Type:         o.Type,
		Total:        o.Total,
		TotalLabel:   PriceLabel(o.Total),
		Address:      o.Address.Street + ", " + o.Address.Barangay + ", " + o.Address.City + ", " + o.Address.Province,
		Contact:      o.ContactNumber,
	}
	for _, it := range o.Items {
		r.ItemCount += it.Quantity
	}
	if next, ok := o.Status.Next(); ok {
		r.NextStatus = next
	}
	return r
}

// CustomerOrders lists uid's orders, newest first.
func CustomerOrders(s state.Snapshot, uid string) []OrderRow {
	orders := s.OrdersFor(uid)
	out := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		out = append(out, Row(o))
	}
	return out
}

// AdminOrders lists every order, optionally only those in status.
func AdminOrders(s state.Snapshot, status models.OrderStatus) []OrderRow {
	out := make([]OrderRow, 0, len(s.Orders))
	for _, o := range s.Orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, Row(o))
	}
	return out
}
