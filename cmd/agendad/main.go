// Command agendad runs the booking engine HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telensor/agenda/adapter/api"
	"github.com/telensor/agenda/internal/booking/application/services"
	"github.com/telensor/agenda/internal/booking/domain"
	"github.com/telensor/agenda/internal/booking/infrastructure/catalog"
	"github.com/telensor/agenda/internal/booking/infrastructure/fixtures"
	"github.com/telensor/agenda/internal/booking/infrastructure/persistence"
	"github.com/telensor/agenda/internal/shared/infrastructure/eventbus"
	"github.com/telensor/agenda/pkg/config"
	"github.com/telensor/agenda/pkg/observability"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "agendad",
		Short:   "Appointment booking engine server",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resettableStore is what the reset endpoint and the health check need
// beyond the core store contract.
type resettableStore interface {
	domain.ReservationStore
	Reset()
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.ServiceVersion = version
	logger := observability.NewLogger(logCfg)
	metrics := observability.NewInMemoryMetrics()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher eventbus.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
	} else {
		publisher = eventbus.NewInProcessBus(logger)
	}
	defer func() { _ = publisher.Close() }()

	cat := catalog.NewDefault()
	scenarios := fixtures.NewFileLoader(cfg.ScenariosPath, logger)

	aggregator := services.NewBlockingAggregator(cat, store, logger)
	availability := services.NewAvailabilityService(cat, cat, scenarios, aggregator, logger, metrics)
	reservations := services.NewReservationManager(availability, store, publisher, logger, metrics)
	cascade := services.NewCascadeManager(availability, store, scenarios, publisher, logger, metrics)

	handler := api.NewBookingHandler(api.BookingHandlerConfig{
		Availability: availability,
		Reservations: reservations,
		Cascade:      cascade,
		Resetter:     store,
		Logger:       logger,
		Metrics:      metrics,
	})

	health := observability.NewHealthRegistry()
	health.Register("store", func(ctx context.Context) observability.HealthCheckResult {
		if _, err := store.ListReservations(ctx); err != nil {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusUnhealthy,
				Message: err.Error(),
			}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	server := api.NewServer(serverCfg, handler, health, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (resettableStore, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return persistence.NewMemoryStore(), func() {}, nil
	case "sqlite":
		store, err := persistence.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		store, err := persistence.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
