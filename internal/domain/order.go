package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order. Transitions are
// admin-triggered only: pending -> processing -> shipped -> delivered,
// with cancelled reachable from any non-terminal state.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the status machine allows moving from
// s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// PaymentStatus reflects how much of the order total has been collected.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPending PaymentStatus = "pending"
)

// OrderLineItem is a point-in-time denormalized snapshot of a product at
// checkout. It is a copy, not a live reference: later changes to the
// product never alter it.
type OrderLineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

// Order is a durable record created exactly once per checkout. Line
// items and total are immutable after creation; only the status fields
// are mutable, and only by admins.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Items         []OrderLineItem `json:"items" db:"items"`
	TotalAmount   float64         `json:"total_amount" db:"total_amount"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	OrderStatus   OrderStatus     `json:"order_status" db:"order_status"`
	IsCOD         bool            `json:"is_cod" db:"is_cod"`
	CODAmount     float64         `json:"cod_amount" db:"cod_amount"`
	UpfrontAmount float64         `json:"upfront_amount" db:"upfront_amount"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
