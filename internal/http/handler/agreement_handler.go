package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/mapper"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/nordbooks/billing-api/internal/service"
	"go.uber.org/zap"
)

type AgreementHandler struct {
	agreementService *service.AgreementService
	logger           *zap.Logger
}

func NewAgreementHandler(agreementService *service.AgreementService, logger *zap.Logger) *AgreementHandler {
	return &AgreementHandler{
		agreementService: agreementService,
		logger:           logger,
	}
}

// List godoc
// @Summary List service agreements
// @Description Get paginated list of service agreements with optional filters
// @Tags Agreements
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, generated, signed)
// @Param clientId query string false "Filter by client" format(uuid)
// @Param templateId query string false "Filter by template" format(uuid)
// @Param search query string false "Search by agreement number"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, total, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ServiceAgreementDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /agreements [get]
func (h *AgreementHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := repository.AgreementFilter{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.AgreementStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = s
	}
	if clientID := r.URL.Query().Get("clientId"); clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid clientId filter")
			return
		}
		filter.ClientID = &id
	}
	if templateID := r.URL.Query().Get("templateId"); templateID != "" {
		id, err := uuid.Parse(templateID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid templateId filter")
			return
		}
		filter.TemplateID = &id
	}

	agreements, total, err := h.agreementService.List(r.Context(), page, pageSize, filter, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list agreements")
		return
	}

	dtos := make([]domain.ServiceAgreementDTO, len(agreements))
	for i := range agreements {
		dtos[i] = mapper.ToAgreementDTO(&agreements[i])
	}

	respondJSON(w, http.StatusOK, paginated(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get service agreement by ID
// @Description Get a single service agreement including its rendered content
// @Tags Agreements
// @Accept json
// @Produce json
// @Param id path string true "Agreement ID" format(uuid)
// @Success 200 {object} domain.ServiceAgreementDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /agreements/{id} [get]
func (h *AgreementHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid agreement ID format")
		return
	}

	agreement, err := h.agreementService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get agreement")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAgreementDTO(agreement))
}

// GetByQuoteID godoc
// @Summary Get service agreement by source quote
// @Description Get the agreement a quote was converted into
// @Tags Agreements
// @Accept json
// @Produce json
// @Param quoteId path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.ServiceAgreementDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{quoteId}/agreement [get]
func (h *AgreementHandler) GetByQuoteID(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "quoteId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	agreement, err := h.agreementService.GetByQuoteID(r.Context(), quoteID)
	if err != nil {
		respondServiceError(w, h.logger, err, "get agreement by quote")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAgreementDTO(agreement))
}

// UpdateStatus godoc
// @Summary Update agreement status
// @Description Apply a lifecycle transition (draft to generated, generated to signed)
// @Tags Agreements
// @Accept json
// @Produce json
// @Param id path string true "Agreement ID" format(uuid)
// @Param request body domain.UpdateAgreementStatusRequest true "New status"
// @Success 200 {object} domain.ServiceAgreementDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /agreements/{id}/status [patch]
func (h *AgreementHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid agreement ID format")
		return
	}

	var req domain.UpdateAgreementStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	agreement, err := h.agreementService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update agreement status")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToAgreementDTO(agreement))
}
