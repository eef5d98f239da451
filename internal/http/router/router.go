package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nordbooks/billing-api/internal/accounting"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/config"
	"github.com/nordbooks/billing-api/internal/database"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/http/handler"
	"github.com/nordbooks/billing-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/nordbooks/billing-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	accountingClient *accounting.Client
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	authHandler      *handler.AuthHandler
	clientHandler    *handler.ClientHandler
	quoteHandler     *handler.QuoteHandler
	invoiceHandler   *handler.InvoiceHandler
	agreementHandler *handler.AgreementHandler
	templateHandler  *handler.TemplateHandler
	usageHandler     *handler.UsageHandler
	settingsHandler  *handler.SettingsHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	accountingClient *accounting.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	clientHandler *handler.ClientHandler,
	quoteHandler *handler.QuoteHandler,
	invoiceHandler *handler.InvoiceHandler,
	agreementHandler *handler.AgreementHandler,
	templateHandler *handler.TemplateHandler,
	usageHandler *handler.UsageHandler,
	settingsHandler *handler.SettingsHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		accountingClient: accountingClient,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		authHandler:      authHandler,
		clientHandler:    clientHandler,
		quoteHandler:     quoteHandler,
		invoiceHandler:   invoiceHandler,
		agreementHandler: agreementHandler,
		templateHandler:  templateHandler,
		usageHandler:     usageHandler,
		settingsHandler:  settingsHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check (database plus the accounting warehouse when enabled)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		if rt.accountingClient != nil {
			checks["accounting"] = rt.accountingClient.HealthCheck(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		if !allHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			status = "unhealthy"
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Get("/auth/permissions", rt.authHandler.Permissions)

			// Clients
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", rt.clientHandler.List)
				r.Post("/", rt.clientHandler.Create)
				r.Get("/{id}", rt.clientHandler.GetByID)
				r.Put("/{id}", rt.clientHandler.Update)
				r.Delete("/{id}", rt.clientHandler.Delete)
			})

			// Quotes and conversions
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.quoteHandler.List)
				r.Post("/", rt.quoteHandler.Create)
				r.Get("/{id}", rt.quoteHandler.GetByID)
				r.Put("/{id}", rt.quoteHandler.Update)
				r.Delete("/{id}", rt.quoteHandler.Delete)

				r.Post("/{id}/convert/invoice", rt.quoteHandler.ConvertToInvoice)
				r.Post("/{id}/convert/agreement", rt.quoteHandler.ConvertToAgreement)

				r.Get("/{quoteId}/invoice", rt.invoiceHandler.GetByQuoteID)
				r.Get("/{quoteId}/agreement", rt.agreementHandler.GetByQuoteID)
			})

			// Invoices
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", rt.invoiceHandler.List)
				r.Get("/{id}", rt.invoiceHandler.GetByID)
				r.Patch("/{id}/status", rt.invoiceHandler.UpdateStatus)
			})

			// Service agreements
			r.Route("/agreements", func(r chi.Router) {
				r.Get("/", rt.agreementHandler.List)
				r.Get("/{id}", rt.agreementHandler.GetByID)
				r.Patch("/{id}/status", rt.agreementHandler.UpdateStatus)
			})

			// Templates
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", rt.templateHandler.List)
				r.Post("/", rt.templateHandler.Create)
				r.Get("/{id}", rt.templateHandler.GetByID)
				r.Put("/{id}", rt.templateHandler.Update)
				r.With(rt.authMiddleware.RequirePermission(domain.PermissionTemplatesDelete)).
					Delete("/{id}", rt.templateHandler.Delete)
				r.Post("/{id}/clone", rt.templateHandler.Clone)
				r.Post("/{id}/preview", rt.templateHandler.Preview)
			})

			// Usage analytics
			r.Route("/usage", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequirePermission(domain.PermissionUsageView))
				r.Get("/analytics", rt.usageHandler.Analytics)
				r.Get("/templates/{id}", rt.usageHandler.TemplateStats)
				r.Get("/users/{id}", rt.usageHandler.UserStats)
			})

			// Company settings
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", rt.settingsHandler.Get)
				r.Put("/", rt.settingsHandler.Update)
			})
		})
	})

	return r
}
