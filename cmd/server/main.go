package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"portfolio-tracker/internal/alphavantage"
	"portfolio-tracker/internal/api"
	"portfolio-tracker/internal/apperrors"
	"portfolio-tracker/internal/auth"
	"portfolio-tracker/internal/config"
	"portfolio-tracker/internal/database"
	"portfolio-tracker/internal/repository"
	"portfolio-tracker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	priceRepo := repository.NewPriceRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Create the market data provider
	provider, err := alphavantage.NewClient(cfg.Provider)
	if err != nil {
		log.Fatalf("Failed to create market data provider: %v", err)
	}
	log.Printf("Market data provider: %s", provider.Name())

	// Create services
	tradeService := service.NewTradeService(
		db,
		tradeRepo,
		priceRepo,
		configRepo,
		cfg.Portfolio.InitialCash,
	)
	snapshotService := service.NewSnapshotService(
		snapshotRepo,
		priceRepo,
		tradeRepo,
		tradeService,
	)
	priceService := service.NewPriceService(
		provider,
		priceRepo,
		tradeRepo,
		configRepo,
		snapshotService,
		cfg.Portfolio.BenchmarkTicker,
		cfg.Portfolio.LookbackDays,
		cfg.Portfolio.CooldownSeconds,
	)
	analyticsService := service.NewAnalyticsService(
		snapshotRepo,
		priceRepo,
		tradeRepo,
		configRepo,
		tradeService,
		cfg.Portfolio.BenchmarkTicker,
		cfg.Portfolio.LookbackDays,
		cfg.Portfolio.RiskFreeRate,
	)
	systemService := service.NewSystemService(
		db,
		priceRepo,
		tradeRepo,
		snapshotRepo,
		tradeService,
		provider,
		cfg.Portfolio.CooldownSeconds,
	)

	// Seed initial cash and start date on first run
	if err := tradeService.Initialize(); err != nil {
		log.Fatalf("Failed to initialize portfolio: %v", err)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	// Create router
	router := api.NewRouter(priceService, tradeService, snapshotService, analyticsService, systemService, authManager, cfg)

	// Scheduled refresh; cooldown and gap planning keep it idempotent
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Portfolio.RefreshSchedule, func() {
		result, err := priceService.Refresh(context.Background())
		switch {
		case errors.Is(err, apperrors.ErrCooldownActive):
			log.Println("Scheduled refresh skipped: cooldown active")
		case err != nil:
			log.Printf("Scheduled refresh failed: %v", err)
		default:
			log.Printf("Scheduled refresh: %s", result.Message)
		}
	}); err != nil {
		log.Fatalf("Invalid refresh schedule %q: %v", cfg.Portfolio.RefreshSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
