package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/service"
	"go.uber.org/zap"
)

type UsageHandler struct {
	usageService *service.UsageService
	logger       *zap.Logger
}

func NewUsageHandler(usageService *service.UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		logger:       logger,
	}
}

// parseDays reads the optional days window parameter. Zero means the
// service default; range validation happens in the service.
func parseDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// Analytics godoc
// @Summary Usage analytics
// @Description Company-wide template usage rollup over a trailing window
// @Tags Usage
// @Accept json
// @Produce json
// @Param days query int false "Window size in days (1-365)" default(30)
// @Success 200 {object} domain.UsageAnalyticsDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /usage/analytics [get]
func (h *UsageHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid days parameter")
		return
	}

	analytics, err := h.usageService.Analytics(r.Context(), days)
	if err != nil {
		respondServiceError(w, h.logger, err, "get usage analytics")
		return
	}

	respondJSON(w, http.StatusOK, analytics)
}

// TemplateStats godoc
// @Summary Template usage stats
// @Description Usage aggregates for one template over a trailing window
// @Tags Usage
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param days query int false "Window size in days (1-365)" default(30)
// @Success 200 {object} domain.TemplateUsageStatsDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /usage/templates/{id} [get]
func (h *UsageHandler) TemplateStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid days parameter")
		return
	}

	stats, err := h.usageService.TemplateStats(r.Context(), id, days)
	if err != nil {
		respondServiceError(w, h.logger, err, "get template usage stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// UserStats godoc
// @Summary User usage stats
// @Description Usage aggregates for one user over a trailing window
// @Tags Usage
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param days query int false "Window size in days (1-365)" default(30)
// @Success 200 {object} domain.UserUsageStatsDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /usage/users/{id} [get]
func (h *UsageHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid days parameter")
		return
	}

	stats, err := h.usageService.UserStats(r.Context(), userID, days)
	if err != nil {
		respondServiceError(w, h.logger, err, "get user usage stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
