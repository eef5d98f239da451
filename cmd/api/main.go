package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nordbooks/billing-api/docs"
	"github.com/nordbooks/billing-api/internal/accounting"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/config"
	"github.com/nordbooks/billing-api/internal/database"
	"github.com/nordbooks/billing-api/internal/http/handler"
	"github.com/nordbooks/billing-api/internal/http/middleware"
	"github.com/nordbooks/billing-api/internal/http/router"
	"github.com/nordbooks/billing-api/internal/jobs"
	"github.com/nordbooks/billing-api/internal/logger"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/nordbooks/billing-api/internal/service"
	"go.uber.org/zap"
)

// @title Nordbooks Billing API
// @version 1.0
// @description Quote, invoice, and service agreement lifecycle API with template-driven document generation

// @contact.name API Support
// @contact.email support@nordbooks.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "billing-staging.nordbooks.io"
	case "production":
		docs.SwaggerInfo.Host = "api.nordbooks.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize accounting warehouse connection (optional, read-only).
	// The app continues without it; payment sync becomes a no-op.
	var accountingClient *accounting.Client
	if cfg.Accounting.Enabled {
		accountingClient, err = accounting.NewClient(&cfg.Accounting, log)
		if err != nil {
			log.Warn("Accounting warehouse connection failed, continuing without it",
				zap.Error(err),
			)
		} else if accountingClient != nil {
			log.Info("Accounting warehouse connected",
				zap.Int("max_open_conns", cfg.Accounting.MaxOpenConns),
			)
		}
	} else {
		log.Info("Accounting warehouse not configured, skipping")
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	usageEventRepo := repository.NewUsageEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	usageService := service.NewUsageService(usageEventRepo, templateRepo, log)
	conversionService := service.NewConversionService(db, quoteRepo, invoiceRepo, agreementRepo, templateRepo, settingsRepo, usageService, log)
	clientService := service.NewClientService(clientRepo, log)
	quoteService := service.NewQuoteService(quoteRepo, clientRepo, settingsRepo, conversionService, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, log)
	agreementService := service.NewAgreementService(agreementRepo, log)
	templateService := service.NewTemplateService(templateRepo, quoteRepo, clientRepo, settingsRepo, usageService, log)
	settingsService := service.NewSettingsService(settingsRepo, templateRepo, log)
	paymentSyncService := service.NewPaymentSyncService(accountingClient, invoiceRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userRepo, log)
	clientHandler := handler.NewClientHandler(clientService, log)
	quoteHandler := handler.NewQuoteHandler(quoteService, conversionService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, log)
	agreementHandler := handler.NewAgreementHandler(agreementService, log)
	templateHandler := handler.NewTemplateHandler(templateService, log)
	usageHandler := handler.NewUsageHandler(usageService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		accountingClient,
		authMiddleware,
		rateLimiter,
		authHandler,
		clientHandler,
		quoteHandler,
		invoiceHandler,
		agreementHandler,
		templateHandler,
		usageHandler,
		settingsHandler,
	)

	// Start scheduler for background jobs
	scheduler := jobs.NewScheduler(log)

	if err := jobs.RegisterLifecycleJob(
		scheduler,
		quoteService,
		invoiceService,
		log,
		cfg.Jobs.QuoteExpirySchedule,
	); err != nil {
		log.Error("Failed to register lifecycle job", zap.Error(err))
	}

	if accountingClient != nil {
		if err := jobs.RegisterPaymentSyncJob(
			scheduler,
			paymentSyncService,
			log,
			cfg.Jobs.PaymentSyncSchedule,
			true, // reconcile immediately on startup
		); err != nil {
			log.Error("Failed to register payment sync job", zap.Error(err))
		}
	}

	scheduler.Start()
	log.Info("Scheduler started",
		zap.Strings("jobs", scheduler.GetJobNames()),
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler, waiting for running jobs to finish
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close accounting connection if initialized
		if accountingClient != nil {
			if err := accountingClient.Close(); err != nil {
				log.Warn("Error closing accounting connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
