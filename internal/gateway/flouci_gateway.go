package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/config"
	"github.com/flouci-labs/checkout-gateway/internal/flouci"
	"github.com/flouci-labs/checkout-gateway/internal/metrics"
	"github.com/flouci-labs/checkout-gateway/internal/models"
	"github.com/flouci-labs/checkout-gateway/internal/tracking"
)

const sessionTimeoutSecs = 1200

// minorUnitFactor converts an order total into the amount Flouci expects.
// Fixed multiplier inherited from the integration contract, not a
// currency-aware conversion.
var minorUnitFactor = decimal.NewFromInt(1000)

// FlouciGateway opens hosted payment sessions with Flouci. It is a stateless
// service constructed once at startup with its configuration injected.
type FlouciGateway struct {
	cfg    *config.Config
	client *flouci.Client
	codec  *tracking.Codec
	logger *zap.Logger
}

func NewFlouciGateway(cfg *config.Config, client *flouci.Client, codec *tracking.Codec, logger *zap.Logger) *FlouciGateway {
	return &FlouciGateway{
		cfg:    cfg,
		client: client,
		codec:  codec,
		logger: logger,
	}
}

func (g *FlouciGateway) InitiateSession(ctx context.Context, order *models.Order) (string, error) {
	if err := g.cfg.ValidateCredentials(); err != nil {
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeConfigError).Inc()
		return "", err
	}
	if order.ID <= 0 || !order.Total.IsPositive() {
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeCreateFailed).Inc()
		return "", fmt.Errorf("%w: order %d has no payable total", models.ErrSessionCreation, order.ID)
	}

	amount := order.Total.Mul(minorUnitFactor).Round(0).IntPart()

	link, err := g.client.GeneratePayment(ctx, flouci.SessionRequest{
		Amount:              amount,
		AcceptCard:          "true",
		SessionTimeoutSecs:  sessionTimeoutSecs,
		SuccessLink:         g.cfg.PublicBaseURL + "/payments/flouci/return",
		FailLink:            g.cfg.PublicBaseURL + "/payments/flouci/cancel",
		DeveloperTrackingID: g.codec.Format(order.ID),
	})
	if err != nil {
		metrics.SessionsTotal.WithLabelValues(metrics.OutcomeCreateFailed).Inc()
		g.logger.Error("Session creation failed",
			zap.Int64("order_id", order.ID),
			zap.Bool("test_mode", g.cfg.TestMode),
			zap.Error(err),
		)
		return "", err
	}

	metrics.SessionsTotal.WithLabelValues(metrics.OutcomeCreated).Inc()
	g.logger.Info("Payment session created",
		zap.Int64("order_id", order.ID),
		zap.Int64("amount", amount),
	)
	return link, nil
}

func (g *FlouciGateway) SettingsSchema() []SettingField {
	return []SettingField{
		{Key: "enabled", Title: "Enable/Disable", Type: "checkbox", Default: "no"},
		{Key: "title", Title: "Title", Type: "text", Description: "Title shown to the customer during checkout.", Default: "Flouci Payment"},
		{Key: "description", Title: "Description", Type: "textarea", Description: "Description shown to the customer during checkout.", Default: "Pay with Flouci."},
		{Key: "testmode", Title: "Test mode", Type: "checkbox", Description: "Place the payment gateway in test mode.", Default: "yes"},
		{Key: "app_token", Title: "App Token", Type: "text", Description: "Flouci App Token."},
		{Key: "app_secret", Title: "App Secret", Type: "text", Description: "Flouci App Secret."},
	}
}
