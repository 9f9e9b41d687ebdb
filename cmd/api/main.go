package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tomashops/tomashops-backend/api/routes"
	"github.com/tomashops/tomashops-backend/internal/checkout"
	"github.com/tomashops/tomashops-backend/internal/ledger"
	"github.com/tomashops/tomashops-backend/internal/orders"
	"github.com/tomashops/tomashops-backend/internal/payments"
	"github.com/tomashops/tomashops-backend/internal/payouts"
	"github.com/tomashops/tomashops-backend/internal/sellers"
	"github.com/tomashops/tomashops-backend/internal/users"
	stripewebhook "github.com/tomashops/tomashops-backend/internal/webhooks/stripe"
	"github.com/tomashops/tomashops-backend/pkg/config"
	"github.com/tomashops/tomashops-backend/pkg/db"
	"github.com/tomashops/tomashops-backend/pkg/logger"
	"github.com/tomashops/tomashops-backend/pkg/metrics"
	"github.com/tomashops/tomashops-backend/pkg/migrate"
	"github.com/tomashops/tomashops-backend/pkg/redis"
	"github.com/tomashops/tomashops-backend/pkg/stripe"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	feeRate, err := cfg.Checkout.FeeRate()
	if err != nil {
		logg.Error(context.Background(), "invalid platform fee rate", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	sellerRepo := sellers.NewRepository(dbClient.DB())
	intentRepo := checkout.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	paymentClient := payments.NewStripeClient(stripeClient, paymentMetrics)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		IntentRepo:   intentRepo,
		SellerRepo:   sellerRepo,
		StripeClient: paymentClient,
		FeeRate:      feeRate,
		Currency:     cfg.Checkout.Currency,
		Logger:       logg,
		Metrics:      paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	sellerService, err := sellers.NewService(sellers.ServiceParams{
		SellerRepo:   sellerRepo,
		UserRepo:     userRepo,
		StripeClient: paymentClient,
		StripeCfg:    cfg.Stripe,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create seller service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orderRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		OrderRepo:         orderRepo,
		IntentRepo:        intentRepo,
		LedgerRepo:        ledgerRepo,
		StripeClient:      paymentClient,
		TransactionRunner: dbClient,
		FeeRate:           feeRate,
		Currency:          cfg.Checkout.Currency,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		SellerRepo:        sellerRepo,
		UserRepo:          userRepo,
		OrderRepo:         orderRepo,
		IntentRepo:        intentRepo,
		LedgerRepo:        ledgerRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			checkoutService,
			sellerService,
			orderService,
			payoutService,
			stripeClient,
			webhookService,
			webhookGuard,
			paymentMetrics,
			registry,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}
}
