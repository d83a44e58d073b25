package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/models"
	"github.com/flouci-labs/checkout-gateway/internal/service"
)

// PaymentReconciler is what the handler needs from the reconciliation core.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, paymentID string) (*service.Outcome, error)
}

// ReconcileHandler terminates the provider's redirect back to this service.
// Both the success_link and fail_link routes land here; the provider's
// verified status, not the route, decides the order's fate.
type ReconcileHandler struct {
	reconciler PaymentReconciler
	logger     *zap.Logger
}

func NewReconcileHandler(reconciler PaymentReconciler, logger *zap.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

func (h *ReconcileHandler) HandleReturn(c *gin.Context) {
	paymentID := c.Query("payment_id")
	if paymentID == "" {
		// Not a reconciliation callback.
		c.Status(http.StatusNoContent)
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), paymentID)
	switch {
	case errors.Is(err, models.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "payment already resolved"})
		return
	case errors.Is(err, models.ErrCorrelation):
		// No order to redirect to; a generic failure page is the only
		// honest answer here.
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be matched to an order"})
		return
	case errors.Is(err, models.ErrVerifyTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment could not be verified"})
		return
	case err != nil:
		h.logger.Error("Reconciliation failed", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment could not be verified"})
		return
	}

	c.Redirect(http.StatusSeeOther, outcome.RedirectURL)
}
