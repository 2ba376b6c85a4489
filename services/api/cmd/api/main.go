package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/app"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/clock"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/config"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/inventory"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/platform/kafka"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/platform/observability"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/storage/memory"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/storage/postgres"
	redisstore "github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/storage/redis"
	transporthttp "github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/transport/http"
	"github.com/OwenAEdwards/E-Commerece-Website/services/api/migrations"
)

const startupTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

// stores is everything the services need from the storage layer.
type stores struct {
	orders  app.OrderRepository
	catalog app.CatalogRepository
	stock   inventory.Authority
	levels  inventory.StockReader
}

// stockStore is an authority that can also list levels.
type stockStore interface {
	inventory.Authority
	inventory.StockReader
}

func run() error {
	envPath, envErr := config.LoadEnvFile()
	cfg, warnings, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	tp, otelShutdown, otelErr := observability.Setup(startupCtx, observability.OTelConfig{
		Endpoint:       cfg.OTelEndpoint,
		AuthHeader:     cfg.OTelAuthHeader,
		Insecure:       cfg.OTelInsecure,
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
	})
	exportLogs := otelErr == nil && cfg.OTelEndpoint != ""

	logger, err := observability.NewLogger(cfg.LogLevel, config.ServiceName, exportLogs)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	switch {
	case envErr != nil:
		logger.Warn("failed to load .env", zap.Error(envErr))
	case envPath != "":
		logger.Info("loaded env file", zap.String("path", envPath))
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	if otelErr != nil {
		logger.Error("failed to set up OpenTelemetry export, continuing without it", zap.Error(otelErr))
		tp = nil
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				logger.Error("otel shutdown", zap.Error(err))
			}
		}()
	}

	clk := clock.NewSystem()
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	var st stores
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(startupCtx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		applied, err := migrations.Apply(startupCtx, pool)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Strings("applied", applied))

		stock := postgres.NewStockRepository(pool)
		st = stores{
			orders:  postgres.NewOrderRepository(pool),
			catalog: postgres.NewCatalogRepository(pool),
			stock:   stock,
			levels:  stock,
		}
	case config.StorageMemory:
		stock := inventory.NewMemory()
		st = stores{
			orders:  memory.NewOrders(),
			catalog: memory.NewCatalog(stock),
			stock:   stock,
			levels:  stock,
		}
	}

	if cfg.InventoryBackend == config.InventoryRedis {
		client, err := redisstore.Connect(startupCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		var redisStock stockStore = redisstore.NewStockStore(client)
		st.stock, st.levels = redisStock, redisStock
		logger.Info("stock kept in redis")
	}

	opts := []app.Option{app.WithLogger(logger), app.WithMetrics(metrics)}
	if tp != nil {
		opts = append(opts, app.WithTracer(tp.Tracer(config.ServiceName)))
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer, err := kafka.NewWriter(kafka.WriterConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, tp)
		if err != nil {
			return err
		}
		publisher := kafka.NewPublisher(writer)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("close kafka publisher", zap.Error(err))
			}
		}()
		opts = append(opts, app.WithPublisher(publisher))
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	orderSvc := app.NewOrderService(st.orders, st.catalog, st.catalog, clk, opts...)
	fulfillmentSvc := app.NewFulfillmentService(st.orders, st.catalog, st.stock, clk, opts...)
	catalogSvc := app.NewCatalogService(st.catalog, st.stock, st.levels, clk)

	handler := transporthttp.NewRouter(transporthttp.Deps{
		Orders:         orderSvc,
		Fulfillment:    fulfillmentSvc,
		Catalog:        catalogSvc,
		Logger:         logger,
		Metrics:        metrics,
		MetricsHandler: observability.Handler(prometheus.DefaultGatherer),
		CORSOrigins:    cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("api listening",
		zap.String("addr", server.Addr),
		zap.String("storage", cfg.StorageBackend),
		zap.String("inventory", cfg.InventoryBackend),
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
