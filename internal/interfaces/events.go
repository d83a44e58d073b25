package interfaces

import (
	"context"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

// EventPublisher emits order state-change events for downstream consumers.
type EventPublisher interface {
	PublishStateChange(ctx context.Context, event models.OrderStateEvent) error
}

// ReconcileLocker serializes reconciliation passes for one payment id. The
// lock is best-effort; the order store's compare-and-set transitions are what
// guarantee idempotence.
type ReconcileLocker interface {
	Acquire(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string)
}
