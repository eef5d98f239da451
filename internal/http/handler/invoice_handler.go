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

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// List godoc
// @Summary List invoices
// @Description Get paginated list of invoices with optional filters
// @Tags Invoices
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(draft, sent, paid, overdue)
// @Param clientId query string false "Filter by client" format(uuid)
// @Param search query string false "Search by invoice number"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, total, status, dueDate)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InvoiceDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := repository.InvoiceFilter{
		Search: r.URL.Query().Get("search"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.InvoiceStatus(status)
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

	invoices, total, err := h.invoiceService.List(r.Context(), page, pageSize, filter, parseSort(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list invoices")
		return
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}

	respondJSON(w, http.StatusOK, paginated(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get invoice by ID
// @Description Get a single invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get invoice")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToInvoiceDTO(invoice))
}

// GetByQuoteID godoc
// @Summary Get invoice by source quote
// @Description Get the invoice a quote was converted into
// @Tags Invoices
// @Accept json
// @Produce json
// @Param quoteId path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{quoteId}/invoice [get]
func (h *InvoiceHandler) GetByQuoteID(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "quoteId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	invoice, err := h.invoiceService.GetByQuoteID(r.Context(), quoteID)
	if err != nil {
		respondServiceError(w, h.logger, err, "get invoice by quote")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToInvoiceDTO(invoice))
}

// UpdateStatus godoc
// @Summary Update invoice status
// @Description Apply a lifecycle transition (draft to sent, sent to paid or overdue, overdue to paid)
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Param request body domain.UpdateInvoiceStatusRequest true "New status"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Invalid status transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/{id}/status [patch]
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var req domain.UpdateInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update invoice status")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToInvoiceDTO(invoice))
}
