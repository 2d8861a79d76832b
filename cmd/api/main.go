package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/kitchenpos-backend/api/routes"
	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/catalogsync"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/ingredients"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/internal/loyalty"
	"github.com/angelmondragon/kitchenpos-backend/internal/products"
	"github.com/angelmondragon/kitchenpos-backend/internal/recipes"
	"github.com/angelmondragon/kitchenpos-backend/internal/sales"
	"github.com/angelmondragon/kitchenpos-backend/pkg/config"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/instance"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/metrics"
	"github.com/angelmondragon/kitchenpos-backend/pkg/migrate"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
	"github.com/angelmondragon/kitchenpos-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{DB: dbClient}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.Redis = redisClient
		deps.Idempotency = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay disabled")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
	inventoryMetrics := metrics.NewInventoryMetrics(promRegistry)

	svcs, err := buildServices(cfg, logg, dbClient, inventoryMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, m *metrics.InventoryMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	thresholds := availability.ThresholdsFromConfig(cfg.Inventory)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	syncSvc, err := catalogsync.NewService(catalogsync.NewRepository(conn), dbClient, logg, m)
	if err != nil {
		return routes.Services{}, err
	}
	costingSvc, err := costing.NewService(dbClient, cfg.Costing.AvgHourlyLaborCost, logg)
	if err != nil {
		return routes.Services{}, err
	}
	availabilitySvc, err := availability.NewService(conn, thresholds)
	if err != nil {
		return routes.Services{}, err
	}
	loyaltySvc, err := loyalty.NewService(conn)
	if err != nil {
		return routes.Services{}, err
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	ingredientSvc, err := ingredients.NewService(ingredients.NewRepository(conn), dbClient, ledgerSvc, syncSvc, costingSvc, outboxSvc, thresholds, logg)
	if err != nil {
		return routes.Services{}, err
	}
	recipeSvc, err := recipes.NewService(recipes.NewRepository(conn), dbClient, costingSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	productSvc, err := products.NewService(products.NewRepository(conn), dbClient, costingSvc, availabilitySvc, logg)
	if err != nil {
		return routes.Services{}, err
	}
	salesSvc, err := sales.NewService(sales.NewRepository(conn), dbClient, ledgerSvc, costingSvc, loyaltySvc, outboxSvc, thresholds, m, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Ingredients: ingredientSvc,
		Recipes:     recipeSvc,
		Products:    productSvc,
		Sales:       salesSvc,
		Customers:   loyaltySvc,
		Costing:     costingSvc,
	}, nil
}
