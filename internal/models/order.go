package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusFailed    OrderStatus = "failed"
)

// Terminal reports whether no further transition is expected for the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Order is the read model of a store order as seen by the gateway. The order
// itself is owned by the shop platform; this service only reads id/total and
// writes status plus an audit note.
type Order struct {
	ID        int64
	Total     decimal.Decimal
	Status    OrderStatus
	ReturnURL string
	CancelURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderNote is one entry of an order's append-only audit log.
type OrderNote struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStateEvent is published whenever an order reaches a terminal status.
type OrderStateEvent struct {
	EventID       string      `json:"event_id"`
	OrderID       int64       `json:"order_id"`
	PaymentID     string      `json:"payment_id"`
	State         OrderStatus `json:"state"`
	PreviousState OrderStatus `json:"previous_state"`
	Note          string      `json:"note"`
	Timestamp     time.Time   `json:"timestamp"`
}
