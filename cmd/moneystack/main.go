package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/moneystack/moneystack-go/internal/config"
	"github.com/moneystack/moneystack-go/internal/domain"
	"github.com/moneystack/moneystack-go/internal/handler"
	"github.com/moneystack/moneystack-go/internal/infra/cache"
	"github.com/moneystack/moneystack-go/internal/infra/observability"
	"github.com/moneystack/moneystack-go/internal/infra/postgres"
	"github.com/moneystack/moneystack-go/internal/infra/resilience"
	"github.com/moneystack/moneystack-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("scheduler_spec", cfg.SchedulerSpec),
		zap.Duration("upcoming_horizon", cfg.UpcomingHorizon),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "moneystack-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	dashboardCache := cache.New[*domain.DashboardSummary](cfg.CacheTTL)

	// --- Database ---
	retryCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}

	var ledger *postgres.Ledger
	err = resilience.RetryWithBackoff(context.Background(), retryCfg, func() error {
		var openErr error
		ledger, openErr = postgres.Open(context.Background(), cfg.DatabaseURL)
		return openErr
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer ledger.Close()
	logger.Info("database connected")

	// --- Services ---
	accountSvc := service.NewAccountService(ledger, logger)
	transactionSvc := service.NewTransactionService(ledger, logger)
	subscriptionSvc := service.NewSubscriptionService(ledger, logger)
	creditSvc := service.NewCreditService(ledger, logger)
	projectSvc := service.NewProjectService(ledger, logger)
	dashboardSvc := service.NewDashboardService(ledger, dashboardCache, metrics, logger, cfg.UpcomingHorizon)
	settlementSvc := service.NewSettlementService(ledger, metrics, logger)
	authSvc := service.NewAuthService(ledger, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Scheduler ---
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SchedulerSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := settlementSvc.ProcessDue(ctx); err != nil {
			logger.Error("scheduled settlement run failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("invalid scheduler spec", zap.String("spec", cfg.SchedulerSpec), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("scheduler started", zap.String("spec", cfg.SchedulerSpec))

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Accounts:      accountSvc,
		Transactions:  transactionSvc,
		Subscriptions: subscriptionSvc,
		Credits:       creditSvc,
		Projects:      projectSvc,
		Dashboard:     dashboardSvc,
		Settlement:    settlementSvc,
		Auth:          authSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
