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

type QuoteHandler struct {
	quoteService      *service.QuoteService
	conversionService *service.ConversionService
	logger            *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, conversionService *service.ConversionService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService:      quoteService,
		conversionService: conversionService,
		logger:            logger,
	}
}

// List godoc
// @Summary List quotes
// @Description Get paginated list of quotes with optional filters
// @Tags Quotes
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, sent, accepted, declined, expired)
// @Param clientId query string false "Filter by client" format(uuid)
// @Param ownerId query string false "Filter by owner"
// @Param search query string false "Search by title or quote number"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, title, total, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuoteDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := repository.QuoteFilter{
		OwnerID: r.URL.Query().Get("ownerId"),
		Search:  r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.QuoteStatus(status)
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

	quotes, total, err := h.quoteService.List(r.Context(), page, pageSize, filter, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list quotes")
		return
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}

	respondJSON(w, http.StatusOK, paginated(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get quote by ID
// @Description Get a quote with its line items
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get quote")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Create godoc
// @Summary Create quote
// @Description Create a new quote in draft status. Totals are computed from the line items and company tax rate.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequest true "Quote data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create quote")
		return
	}

	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToQuoteDTO(quote))
}

// Update godoc
// @Summary Update quote
// @Description Update a quote. Content edits are only allowed in draft; a transition into accepted triggers automatic conversion.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.UpdateQuoteRequest true "Quote data"
// @Success 200 {object} domain.UpdateQuoteResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Invalid status transition"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	var req domain.UpdateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, conversions, err := h.quoteService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update quote")
		return
	}

	respondJSON(w, http.StatusOK, domain.UpdateQuoteResponse{
		Quote:               mapper.ToQuoteDTO(quote),
		AutomationTriggered: len(conversions) > 0,
		Conversions:         conversions,
	})
}

// Delete godoc
// @Summary Delete quote
// @Description Delete a quote. Only draft quotes can be deleted.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote is not in draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete quote")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConvertToInvoice godoc
// @Summary Convert quote to invoice
// @Description Create an invoice from an accepted quote. Converting the same quote twice returns the existing invoice.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.ConversionResultDTO "Invoice already existed"
// @Success 201 {object} domain.ConversionResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Quote is not accepted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/convert/invoice [post]
func (h *QuoteHandler) ConvertToInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	_, result, err := h.conversionService.ConvertToInvoice(r.Context(), id, service.ConversionOptions{
		Trigger: domain.TriggerManualConversion,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "convert quote to invoice")
		return
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

// ConvertToAgreement godoc
// @Summary Convert quote to service agreement
// @Description Render a service agreement from an accepted quote using a template. Converting the same quote twice returns the existing agreement.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.ConvertQuoteRequest false "Template selection and variable overrides"
// @Success 200 {object} domain.ConversionResultDTO "Agreement already existed"
// @Success 201 {object} domain.ConversionResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Quote is not accepted, no usable template, or variable validation failed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/convert/agreement [post]
func (h *QuoteHandler) ConvertToAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	var req domain.ConvertQuoteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	_, result, err := h.conversionService.ConvertToAgreement(r.Context(), id, service.ConversionOptions{
		TemplateID:        req.TemplateID,
		VariableOverrides: req.VariableOverrides,
		Trigger:           domain.TriggerManualConversion,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "convert quote to agreement")
		return
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}
