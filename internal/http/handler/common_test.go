package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedType   string
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, domain.ErrorTypeNotFound},
		{"invalid input", fmt.Errorf("%w: bad clientId", service.ErrInvalidInput), http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{"bad numbering format", service.ErrInvalidNumberingFormat, http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, domain.ErrorTypeUnauthorized},
		{"permission denied", service.ErrPermissionDenied, http.StatusForbidden, domain.ErrorTypeForbidden},
		{"invalid transition", fmt.Errorf("%w: sent -> draft", service.ErrInvalidStatusTransition), http.StatusConflict, domain.ErrorTypeConflict},
		{"template in use", service.ErrTemplateInUse, http.StatusConflict, domain.ErrorTypeConflict},
		{"quote not convertible", service.ErrQuoteNotConvertible, http.StatusUnprocessableEntity, domain.ErrorTypeUnprocessable},
		{"no default template", service.ErrNoDefaultTemplate, http.StatusUnprocessableEntity, domain.ErrorTypeUnprocessable},
		{"unknown error becomes 500", fmt.Errorf("connection reset"), http.StatusInternalServerError, domain.ErrorTypeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, zap.NewNop(), tc.err, "process request")

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var apiErr domain.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tc.expectedType, apiErr.Type)
			assert.Equal(t, tc.expectedStatus, apiErr.Status)
		})
	}
}

func TestRespondServiceErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, zap.NewNop(), fmt.Errorf("pq: password authentication failed"), "list quotes")

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "Failed to list quotes", apiErr.Detail)
	assert.NotContains(t, apiErr.Detail, "pq:")
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedPage int
		expectedSize int
	}{
		{"defaults", "", 1, 20},
		{"explicit values", "page=3&pageSize=50", 3, 50},
		{"zero page clamps to one", "page=0&pageSize=10", 1, 10},
		{"negative values fall back", "page=-2&pageSize=-5", 1, 20},
		{"garbage falls back", "page=abc&pageSize=xyz", 1, 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			page, pageSize := parsePagination(r)
			assert.Equal(t, tc.expectedPage, page)
			assert.Equal(t, tc.expectedSize, pageSize)
		})
	}
}

func TestPaginated(t *testing.T) {
	resp := paginated([]string{"a", "b"}, 45, 2, 20)
	assert.Equal(t, int64(45), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.TotalPages, "partial last page counts")

	exact := paginated([]string{}, 40, 1, 20)
	assert.Equal(t, 2, exact.TotalPages)

	empty := paginated([]string{}, 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestToJSONFieldName(t *testing.T) {
	assert.Equal(t, "clientId", toJSONFieldName("ClientId"))
	assert.Equal(t, "title", toJSONFieldName("Title"))
	assert.Equal(t, "", toJSONFieldName(""))
}
