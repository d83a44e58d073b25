package interfaces

import (
	"context"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

// OrderStore is the contract against the external order storage. Terminal
// transitions are compare-and-set: they apply only while the order is still
// pending, so concurrent duplicate callbacks cannot double-complete or
// double-fail an order.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)

	// CompleteOrder moves a pending order to completed and appends note.
	// Returns (false, nil) when the order is already completed, and
	// models.ErrStateConflict when it is already failed.
	CompleteOrder(ctx context.Context, orderID int64, note string) (bool, error)

	// FailOrder is the mirror of CompleteOrder for the failed status.
	FailOrder(ctx context.Context, orderID int64, note string) (bool, error)
}
