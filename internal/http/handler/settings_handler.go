package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/mapper"
	"github.com/nordbooks/billing-api/internal/service"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get company settings
// @Description Get numbering formats, tax rate, and billing defaults for the caller's company
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} domain.CompanySettingsDTO
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get settings")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSettingsDTO(settings))
}

// Update godoc
// @Summary Update company settings
// @Description Replace company settings. Numbering formats must contain exactly one sequence token; sequence counters are never reset.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateCompanySettingsRequest true "Settings data"
// @Success 200 {object} domain.CompanySettingsDTO
// @Failure 400 {object} domain.APIError "Invalid numbering format"
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCompanySettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update settings")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSettingsDTO(settings))
}
