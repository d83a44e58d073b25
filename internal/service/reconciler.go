package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/flouci"
	"github.com/flouci-labs/checkout-gateway/internal/interfaces"
	"github.com/flouci-labs/checkout-gateway/internal/metrics"
	"github.com/flouci-labs/checkout-gateway/internal/models"
	"github.com/flouci-labs/checkout-gateway/internal/tracking"
)

// StatusVerifier fetches a payment's outcome from the provider.
type StatusVerifier interface {
	VerifyPayment(ctx context.Context, paymentID string) (*flouci.VerifyResult, error)
}

// Outcome tells the handler where to send the customer after reconciliation.
type Outcome struct {
	OrderID     int64
	Completed   bool
	RedirectURL string
}

// Reconciler converts a provider-reported payment outcome into a local order
// state transition. Each inbound callback drives one pass:
// the payment id is verified with the provider, resolved to an order through
// the tracking id, and the order is moved to completed or failed exactly
// once. Repeat passes for the same payment are harmless no-ops.
type Reconciler struct {
	store     interfaces.OrderStore
	verifier  StatusVerifier
	codec     *tracking.Codec
	locker    interfaces.ReconcileLocker
	publisher interfaces.EventPublisher
	logger    *zap.Logger
}

func NewReconciler(
	store interfaces.OrderStore,
	verifier StatusVerifier,
	codec *tracking.Codec,
	locker interfaces.ReconcileLocker,
	publisher interfaces.EventPublisher,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		store:     store,
		verifier:  verifier,
		codec:     codec,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// Reconcile runs one reconciliation pass for paymentID. An empty id means
// the request was not a reconciliation callback; it returns (nil, nil) and
// changes nothing.
func (r *Reconciler) Reconcile(ctx context.Context, paymentID string) (*Outcome, error) {
	if paymentID == "" {
		return nil, nil
	}

	locked, err := r.locker.Acquire(ctx, paymentID)
	if err != nil {
		r.logger.Warn("Reconcile lock unavailable", zap.String("payment_id", paymentID), zap.Error(err))
	} else if locked {
		defer r.locker.Release(ctx, paymentID)
	} else {
		// Another pass holds the lock. Proceeding is safe: the store's
		// compare-and-set transition decides who wins.
		r.logger.Warn("Concurrent reconciliation for payment", zap.String("payment_id", paymentID))
	}

	status, err := r.verifier.VerifyPayment(ctx, paymentID)
	if err != nil {
		// Provider or network problem, not a payment decline. With no
		// verification payload there is no tracking id to resolve an order
		// from, so no order is mutated.
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeVerifyError).Inc()
		r.logger.Error("Payment verification unavailable",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return nil, err
	}

	// Resolve the order from the tracking id on both the success and the
	// failure branch before touching anything.
	orderID, err := r.codec.Parse(status.Result.DeveloperTrackingID)
	if err != nil {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeCorrelationError).Inc()
		r.logger.Error("Unresolvable tracking id",
			zap.String("payment_id", paymentID),
			zap.String("tracking_id", status.Result.DeveloperTrackingID),
			zap.Error(err),
		)
		return nil, err
	}

	order, err := r.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeCorrelationError).Inc()
			r.logger.Error("Payment references unknown order",
				zap.String("payment_id", paymentID),
				zap.Int64("order_id", orderID),
			)
			return nil, fmt.Errorf("%w: %v", models.ErrCorrelation, err)
		}
		return nil, err
	}

	if status.Success {
		return r.resolveSuccess(ctx, paymentID, order)
	}
	return r.resolveFailure(ctx, paymentID, order)
}

func (r *Reconciler) resolveSuccess(ctx context.Context, paymentID string, order *models.Order) (*Outcome, error) {
	note := fmt.Sprintf("Payment completed successfully via Flouci (payment %s).", paymentID)
	applied, err := r.store.CompleteOrder(ctx, order.ID, note)
	if err != nil {
		return nil, r.transitionError(paymentID, order.ID, models.StatusCompleted, err)
	}

	if applied {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()
		r.publish(ctx, paymentID, order.ID, models.StatusCompleted, note)
		r.logger.Info("Order completed",
			zap.Int64("order_id", order.ID),
			zap.String("payment_id", paymentID),
		)
	} else {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		r.logger.Info("Order already completed, duplicate callback ignored",
			zap.Int64("order_id", order.ID),
			zap.String("payment_id", paymentID),
		)
	}

	return &Outcome{OrderID: order.ID, Completed: true, RedirectURL: order.ReturnURL}, nil
}

func (r *Reconciler) resolveFailure(ctx context.Context, paymentID string, order *models.Order) (*Outcome, error) {
	note := fmt.Sprintf("Payment failed via Flouci (payment %s).", paymentID)
	applied, err := r.store.FailOrder(ctx, order.ID, note)
	if err != nil {
		return nil, r.transitionError(paymentID, order.ID, models.StatusFailed, err)
	}

	if applied {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		r.publish(ctx, paymentID, order.ID, models.StatusFailed, note)
		r.logger.Info("Order failed",
			zap.Int64("order_id", order.ID),
			zap.String("payment_id", paymentID),
		)
	} else {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	}

	return &Outcome{OrderID: order.ID, Completed: false, RedirectURL: order.CancelURL}, nil
}

func (r *Reconciler) transitionError(paymentID string, orderID int64, to models.OrderStatus, err error) error {
	if errors.Is(err, models.ErrStateConflict) {
		metrics.ReconciliationsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
		r.logger.Error("Contradictory payment notification rejected",
			zap.Int64("order_id", orderID),
			zap.String("payment_id", paymentID),
			zap.String("attempted_state", string(to)),
		)
		return err
	}
	return err
}

func (r *Reconciler) publish(ctx context.Context, paymentID string, orderID int64, to models.OrderStatus, note string) {
	event := models.OrderStateEvent{
		OrderID:       orderID,
		PaymentID:     paymentID,
		State:         to,
		PreviousState: models.StatusPending,
		Note:          note,
	}
	if err := r.publisher.PublishStateChange(ctx, event); err != nil {
		// The order transition already committed; the event stream catches
		// up on the next transition or via reprocessing.
		r.logger.Warn("State change event not published",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
	}
}
