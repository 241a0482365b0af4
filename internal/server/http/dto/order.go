package dto

import "time"

// CustomerPayload describes delivery contact details.
type CustomerPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email,omitempty"`
}

// ItemPayload describes a single order line.
type ItemPayload struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateOrderRequest describes checkout payload. Totals are always recomputed by the server.
type CreateOrderRequest struct {
	OrderID        string          `json:"order_id"`
	Customer       CustomerPayload `json:"customer"`
	Items          []ItemPayload   `json:"items"`
	DiscountAmount float64         `json:"discount_amount"`
	PaymentStatus  string          `json:"payment_status"`
}

// UpdateStatusRequest describes status change payload.
type UpdateStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// OrderResponse represents a persisted order.
type OrderResponse struct {
	OrderID        string          `json:"order_id"`
	UserID         *string         `json:"user_id"`
	Customer       CustomerPayload `json:"customer"`
	Items          []ItemPayload   `json:"items"`
	TotalAmount    float64         `json:"total_amount"`
	DiscountAmount float64         `json:"discount_amount"`
	FinalAmount    float64         `json:"final_amount"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderEnvelope wraps a single order.
type OrderEnvelope struct {
	Success bool          `json:"success"`
	Order   OrderResponse `json:"order"`
}

// OrderListEnvelope wraps a list of orders.
type OrderListEnvelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Orders  []OrderResponse `json:"orders"`
	Source  string          `json:"source,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorResponse is returned on every failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
