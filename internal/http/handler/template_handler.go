package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/mapper"
	"github.com/nordbooks/billing-api/internal/service"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *service.TemplateService
	logger          *zap.Logger
}

func NewTemplateHandler(templateService *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// List godoc
// @Summary List templates
// @Description Get paginated list of agreement templates without content
// @Tags Templates
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param category query string false "Filter by category"
// @Param search query string false "Search by name or description"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.TemplateSummaryDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("search")

	templates, total, err := h.templateService.List(r.Context(), page, pageSize, category, search)
	if err != nil {
		respondServiceError(w, h.logger, err, "list templates")
		return
	}

	dtos := make([]domain.TemplateSummaryDTO, len(templates))
	for i := range templates {
		dtos[i] = mapper.ToTemplateSummaryDTO(&templates[i])
	}

	respondJSON(w, http.StatusOK, paginated(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get template by ID
// @Description Get a template with its content and variable definitions
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Success 200 {object} domain.TemplateDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	template, err := h.templateService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get template")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToTemplateDTO(template))
}

// Create godoc
// @Summary Create template
// @Description Create a new agreement template with typed variable definitions
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body domain.CreateTemplateRequest true "Template data"
// @Success 201 {object} domain.TemplateDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	template, err := h.templateService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create template")
		return
	}

	w.Header().Set("Location", "/api/v1/templates/"+template.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToTemplateDTO(template))
}

// Update godoc
// @Summary Update template
// @Description Replace a template's content and variable definitions
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.UpdateTemplateRequest true "Template data"
// @Success 200 {object} domain.TemplateDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	var req domain.UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	template, err := h.templateService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update template")
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToTemplateDTO(template))
}

// Delete godoc
// @Summary Delete template
// @Description Delete a template. Templates referenced by agreements cannot be deleted.
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Template is referenced by agreements"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	if err := h.templateService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clone godoc
// @Summary Clone template
// @Description Create a copy of a template with its variable definitions under a new name
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.CloneTemplateRequest true "Name for the copy"
// @Success 201 {object} domain.TemplateDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id}/clone [post]
func (h *TemplateHandler) Clone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	var req domain.CloneTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	clone, err := h.templateService.Clone(r.Context(), id, req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "clone template")
		return
	}

	w.Header().Set("Location", "/api/v1/templates/"+clone.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToTemplateDTO(clone))
}

// Preview godoc
// @Summary Preview template rendering
// @Description Render a template against an optional quote and overrides without persisting anything. Substitutions, unresolved variables and validation violations are reported alongside the rendered content.
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.PreviewTemplateRequest false "Quote and variable overrides"
// @Success 200 {object} domain.PreviewResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /templates/{id}/preview [post]
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	var req domain.PreviewTemplateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := h.templateService.Preview(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "preview template")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
