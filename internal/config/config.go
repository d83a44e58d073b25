package config

import (
	"fmt"
	"os"

	"github.com/flouci-labs/checkout-gateway/internal/models"
)

type Config struct {
	Port         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string

	// PublicBaseURL is where Flouci redirects customers back to; the
	// reconcile endpoints are registered under it.
	PublicBaseURL string
	// StoreBaseURL is the shop front used to build the order-received and
	// cancellation destinations.
	StoreBaseURL string

	FlouciBaseURL  string
	AppToken       string
	AppSecret      string
	TrackingSecret string

	Enabled     bool
	TestMode    bool
	Title       string
	Description string
}

func Load() *Config {
	return &Config{
		Port:           envOr("PORT", "8082"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		PublicBaseURL:  envOr("PUBLIC_BASE_URL", "http://localhost:8082"),
		StoreBaseURL:   envOr("STORE_BASE_URL", "http://localhost:8080"),
		FlouciBaseURL:  envOr("FLOUCI_BASE_URL", "https://developers.flouci.com"),
		AppToken:       os.Getenv("FLOUCI_APP_TOKEN"),
		AppSecret:      os.Getenv("FLOUCI_APP_SECRET"),
		TrackingSecret: os.Getenv("FLOUCI_TRACKING_SECRET"),
		Enabled:        envOr("GATEWAY_ENABLED", "yes") == "yes",
		TestMode:       envOr("FLOUCI_TEST_MODE", "yes") == "yes",
		Title:          envOr("GATEWAY_TITLE", "Flouci Payment"),
		Description:    envOr("GATEWAY_DESCRIPTION", "Pay with Flouci."),
	}
}

// ValidateCredentials fails fast when the gateway cannot make outbound calls.
// Callers must not attempt any network request when this returns an error.
func (c *Config) ValidateCredentials() error {
	if !c.Enabled {
		return fmt.Errorf("%w: gateway is disabled", models.ErrConfig)
	}
	if c.AppToken == "" {
		return fmt.Errorf("%w: app token is empty", models.ErrConfig)
	}
	if c.AppSecret == "" {
		return fmt.Errorf("%w: app secret is empty", models.ErrConfig)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
