package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kartlane/storefront-backend/api/routes"
	"github.com/kartlane/storefront-backend/internal/designer"
	"github.com/kartlane/storefront-backend/internal/discounts"
	"github.com/kartlane/storefront-backend/internal/orders"
	"github.com/kartlane/storefront-backend/internal/payments"
	"github.com/kartlane/storefront-backend/internal/tokens"
	"github.com/kartlane/storefront-backend/pkg/config"
	"github.com/kartlane/storefront-backend/pkg/db"
	"github.com/kartlane/storefront-backend/pkg/logger"
	"github.com/kartlane/storefront-backend/pkg/metrics"
	"github.com/kartlane/storefront-backend/pkg/migrate"
	"github.com/kartlane/storefront-backend/pkg/openrouter"
	"github.com/kartlane/storefront-backend/pkg/razorpay"
	"github.com/kartlane/storefront-backend/pkg/redis"
)

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

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(context.Background(), "failed to resolve sql database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(context.Background(), cfg, sqlDB, logg); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	coreMetrics := metrics.NewCoreMetrics(prometheus.DefaultRegisterer)

	ordersRepo := orders.NewRepository(dbClient.DB())
	discountsRepo := discounts.NewRepository(dbClient.DB())
	tokensRepo := tokens.NewRepository(dbClient.DB())
	designerRepo := designer.NewRepository(dbClient.DB())

	discountsService, err := discounts.NewService(discounts.ServiceParams{
		Repo:       discountsRepo,
		OrdersRepo: ordersRepo,
		Logger:     logg,
		Metrics:    coreMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create discounts service", err)
		os.Exit(1)
	}

	tokensService, err := tokens.NewService(tokens.ServiceParams{
		Repo:    tokensRepo,
		Config:  cfg.Designer,
		Logger:  logg,
		Metrics: coreMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create token ledger", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		TokensRepo: tokensRepo,
		Gateway:    gateway,
		Config:     cfg.Designer,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	modelClient, err := openrouter.NewClient(cfg.OpenRouter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create model client", err)
		os.Exit(1)
	}

	designerService, err := designer.NewService(designer.ServiceParams{
		Repo:    designerRepo,
		Tokens:  tokensService,
		Model:   modelClient,
		Tx:      dbClient,
		Logger:  logg,
		Metrics: coreMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create designer service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, discountsService, tokensService, paymentsService, designerService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
