package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/models"
	"github.com/flouci-labs/checkout-gateway/internal/service"
)

type stubReconciler struct {
	outcome *service.Outcome
	err     error
	gotID   string
	calls   int
}

func (s *stubReconciler) Reconcile(_ context.Context, paymentID string) (*service.Outcome, error) {
	s.calls++
	s.gotID = paymentID
	return s.outcome, s.err
}

func newReconcileRouter(rec PaymentReconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReconcileHandler(rec, zap.NewNop())
	r.GET("/payments/flouci/return", h.HandleReturn)
	r.GET("/payments/flouci/cancel", h.HandleReturn)
	return r
}

func TestHandleReturnRedirectsOnSuccess(t *testing.T) {
	rec := &stubReconciler{outcome: &service.Outcome{
		OrderID:     42,
		Completed:   true,
		RedirectURL: "https://shop/checkout/order-received/42",
	}}
	r := newReconcileRouter(rec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments/flouci/return?payment_id=pay_1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://shop/checkout/order-received/42", w.Header().Get("Location"))
	assert.Equal(t, "pay_1", rec.gotID)
}

func TestHandleReturnRedirectsToCancelOnDecline(t *testing.T) {
	rec := &stubReconciler{outcome: &service.Outcome{
		OrderID:     7,
		RedirectURL: "https://shop/checkout/order-cancelled/7",
	}}
	r := newReconcileRouter(rec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments/flouci/cancel?payment_id=pay_2", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://shop/checkout/order-cancelled/7", w.Header().Get("Location"))
}

func TestHandleReturnWithoutPaymentID(t *testing.T) {
	rec := &stubReconciler{}
	r := newReconcileRouter(rec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments/flouci/return", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, rec.calls)
}

func TestHandleReturnErrorSurfaces(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"correlation error", fmt.Errorf("%w: order 999", models.ErrCorrelation), http.StatusBadGateway},
		{"verify transport error", fmt.Errorf("%w: timeout", models.ErrVerifyTransport), http.StatusBadGateway},
		{"state conflict", fmt.Errorf("%w: order 42", models.ErrStateConflict), http.StatusConflict},
		{"unexpected", fmt.Errorf("database down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReconcileRouter(&stubReconciler{err: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/payments/flouci/return?payment_id=pay_x", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			// Never leak provider payloads or stack traces to the customer.
			assert.NotContains(t, w.Body.String(), "database down")
		})
	}
}
