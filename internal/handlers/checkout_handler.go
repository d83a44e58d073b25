package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/gateway"
	"github.com/flouci-labs/checkout-gateway/internal/interfaces"
	"github.com/flouci-labs/checkout-gateway/internal/models"
)

type CheckoutHandler struct {
	store   interfaces.OrderStore
	gateway gateway.PaymentGateway
	logger  *zap.Logger
}

func NewCheckoutHandler(store interfaces.OrderStore, gw gateway.PaymentGateway, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		store:   store,
		gateway: gw,
		logger:  logger,
	}
}

// Pay opens a payment session for an order and returns the hosted payment
// link. Failures surface as a generic checkout notice; provider details stay
// in the logs.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.store.GetOrder(c.Request.Context(), orderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load order", zap.Int64("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}

	link, err := h.gateway.InitiateSession(c.Request.Context(), order)
	if errors.Is(err, models.ErrConfig) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not start payment"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":     orderID,
		"redirect_url": link,
	})
}

// GetOrder exposes a read-only status view of an order.
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.store.GetOrder(c.Request.Context(), orderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID,
		"status":   order.Status,
		"total":    order.Total.String(),
	})
}

// Settings exposes the gateway's settings schema for the admin surface.
func (h *CheckoutHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": h.gateway.SettingsSchema()})
}
