package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flouci-labs/checkout-gateway/internal/gateway"
	"github.com/flouci-labs/checkout-gateway/internal/handlers"
	"github.com/flouci-labs/checkout-gateway/internal/interfaces"
	"github.com/flouci-labs/checkout-gateway/internal/telemetry"
)

func NewRouter(store interfaces.OrderStore, gw gateway.PaymentGateway, reconciler handlers.PaymentReconciler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "flouci-checkout-gateway"})
	})

	// Checkout routes
	checkoutHandler := handlers.NewCheckoutHandler(store, gw, telemetry.Logger)
	r.POST("/checkout/orders/:id/pay", checkoutHandler.Pay)
	r.GET("/orders/:id", checkoutHandler.GetOrder)
	r.GET("/gateway/settings", checkoutHandler.Settings)

	// Provider redirect targets. Both run the same reconciliation pass; the
	// verified status decides the outcome, not the route.
	reconcileHandler := handlers.NewReconcileHandler(reconciler, telemetry.Logger)
	r.GET("/payments/flouci/return", reconcileHandler.HandleReturn)
	r.GET("/payments/flouci/cancel", reconcileHandler.HandleReturn)

	return r
}
