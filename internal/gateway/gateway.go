package gateway

import (
	"context"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

// PaymentGateway is the narrow capability set the checkout flow needs. It
// keeps the core logic independent of any shop platform object model.
type PaymentGateway interface {
	// InitiateSession opens a hosted payment session for the order and
	// returns the URL the customer should be redirected to. The order is
	// never mutated.
	InitiateSession(ctx context.Context, order *models.Order) (string, error)

	// SettingsSchema describes the admin-configurable options so the host
	// platform can render a settings form.
	SettingsSchema() []SettingField
}

// SettingField is one entry of the settings form schema.
type SettingField struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
}
