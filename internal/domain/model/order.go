package model

import (
	"math"
	"time"
)

// OrderStatus describes fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a recognised order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus describes payment progress of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a recognised payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusConfirmed, PaymentStatusFailed:
		return true
	}
	return false
}

// Customer holds delivery contact details.
type Customer struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

// Item is a single order line.
type Item struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// LineTotal returns quantity multiplied by unit price.
func (i Item) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// Order describes a checkout submission persisted by the storefront.
type Order struct {
	ID             string
	UserID         string
	Customer       Customer
	Items          []Item
	TotalAmount    float64
	DiscountAmount float64
	FinalAmount    float64
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsGuest reports whether the order was placed without an authenticated identity.
func (o Order) IsGuest() bool {
	return o.UserID == ""
}

// Clone returns a deep copy so callers cannot mutate stored item slices.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]Item, len(o.Items))
		copy(c.Items, o.Items)
	}
	return c
}

// HasFreeSample reports whether any line is priced at zero.
func (o Order) HasFreeSample() bool {
	for _, item := range o.Items {
		if item.UnitPrice == 0 {
			return true
		}
	}
	return false
}

// Totals computes the item total and the discounted amount clamped at zero.
func Totals(items []Item, discount float64) (total, final float64) {
	for _, item := range items {
		total += item.LineTotal()
	}
	total = roundCents(total)
	final = roundCents(math.Max(0, total-discount))
	return total, final
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Identity is the profile of an authenticated shopper supplied by the identity provider.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// OrderInput is the untrusted checkout payload. Defaults are applied once by the order use case.
type OrderInput struct {
	ID             string
	Customer       Customer
	Items          []Item
	DiscountAmount float64
	PaymentStatus  PaymentStatus
	Identity       *Identity
}

// StatusUpdate is the only mutation persistence adapters accept.
type StatusUpdate struct {
	Status        OrderStatus
	PaymentStatus *PaymentStatus
	UpdatedAt     time.Time
}

// Apply mutates order according to the update.
func (u StatusUpdate) Apply(order *Order) {
	order.Status = u.Status
	if u.PaymentStatus != nil {
		order.PaymentStatus = *u.PaymentStatus
	}
	order.UpdatedAt = u.UpdatedAt
}
