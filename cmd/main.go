package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/api"
	"github.com/flouci-labs/checkout-gateway/internal/config"
	"github.com/flouci-labs/checkout-gateway/internal/events"
	"github.com/flouci-labs/checkout-gateway/internal/flouci"
	"github.com/flouci-labs/checkout-gateway/internal/gateway"
	"github.com/flouci-labs/checkout-gateway/internal/locks"
	"github.com/flouci-labs/checkout-gateway/internal/repository"
	"github.com/flouci-labs/checkout-gateway/internal/service"
	"github.com/flouci-labs/checkout-gateway/internal/telemetry"
	"github.com/flouci-labs/checkout-gateway/internal/tracking"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.Init("flouci-checkout-gateway"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Flouci Checkout Gateway",
		zap.Bool("test_mode", cfg.TestMode),
		zap.Bool("enabled", cfg.Enabled),
	)
	if err := cfg.ValidateCredentials(); err != nil {
		// Checkout will refuse sessions until credentials are set; the
		// service still starts so /health and /metrics stay reachable.
		telemetry.Logger.Warn("Gateway not ready for payments", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize order store
	orderRepo := repository.NewOrderRepository(db, cfg.StoreBaseURL)
	if err := orderRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Kafka publisher for order.state.changed
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, telemetry.Logger)
	defer publisher.Close()

	// Provider client and components
	flouciClient := flouci.NewClient(cfg.FlouciBaseURL, cfg.AppToken, cfg.AppSecret, flouci.DefaultTimeout)
	codec := tracking.NewCodec(cfg.TrackingSecret)

	gw := gateway.NewFlouciGateway(cfg, flouciClient, codec, telemetry.Logger)
	reconciler := service.NewReconciler(
		orderRepo,
		flouciClient,
		codec,
		locks.NewRedisLocker(redisClient),
		publisher,
		telemetry.Logger,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(orderRepo, gw, reconciler),
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Flouci Checkout Gateway starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
