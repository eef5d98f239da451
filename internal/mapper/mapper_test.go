package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToQuoteDTO(t *testing.T) {
	validUntil := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	quote := &domain.Quote{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC),
			UpdatedAt: time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC),
		},
		QuoteNumber: "QTE-2026-0042",
		Status:      domain.QuoteStatusSent,
		OwnerID:     "user-1",
		Client:      &domain.Client{Name: "Acme AS"},
		Title:       "Roof renovation",
		Items: []domain.LineItem{
			{Description: "Labor", Quantity: 4, UnitPrice: 250},
		},
		Subtotal:   1000,
		TaxAmount:  250,
		Total:      1250,
		ValidUntil: &validUntil,
	}

	dto := ToQuoteDTO(quote)

	assert.Equal(t, quote.ID, dto.ID)
	assert.Equal(t, "QTE-2026-0042", dto.QuoteNumber)
	assert.Equal(t, "Acme AS", dto.ClientName)
	assert.Equal(t, "2026-01-02T10:30:00Z", dto.CreatedAt)
	require.NotNil(t, dto.ValidUntil)
	assert.Equal(t, "2026-03-15T00:00:00Z", *dto.ValidUntil)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 1000.0, dto.Items[0].Amount, "line amount is quantity times unit price")
}

func TestToQuoteDTOWithoutClientPreload(t *testing.T) {
	quote := &domain.Quote{Status: domain.QuoteStatusDraft}
	dto := ToQuoteDTO(quote)
	assert.Empty(t, dto.ClientName)
	assert.Nil(t, dto.ValidUntil)
	assert.NotNil(t, dto.Items, "items marshals as an empty array, not null")
}

func TestToInvoiceDTO(t *testing.T) {
	paidAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	invoice := &domain.Invoice{
		BaseModel:     domain.BaseModel{ID: uuid.New()},
		InvoiceNumber: "INV-2026-0007",
		Status:        domain.InvoiceStatusPaid,
		Quote: &domain.Quote{
			QuoteNumber: "QTE-2026-0042",
			Client:      &domain.Client{Name: "Acme AS"},
		},
		PaidAt:        &paidAt,
		AutoGenerated: true,
	}

	dto := ToInvoiceDTO(invoice)

	assert.Equal(t, "INV-2026-0007", dto.InvoiceNumber)
	assert.Equal(t, "QTE-2026-0042", dto.QuoteNumber)
	assert.Equal(t, "Acme AS", dto.ClientName)
	assert.True(t, dto.AutoGenerated)
	require.NotNil(t, dto.PaidAt)
	assert.Equal(t, "2026-02-01T12:00:00Z", *dto.PaidAt)
}

func TestToTemplateSummaryDTO(t *testing.T) {
	template := &domain.Template{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      "Standard SLA",
		Category:  "sla",
		Variables: []domain.VariableDefinition{
			{Name: "client_name"},
			{Name: "service_level"},
		},
	}

	dto := ToTemplateSummaryDTO(template)
	assert.Equal(t, "Standard SLA", dto.Name)
	assert.Equal(t, 2, dto.VariableCount)
}
