package service

import (
	"testing"

	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestQuoteTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.QuoteStatus
		to      domain.QuoteStatus
		allowed bool
	}{
		{"draft to sent", domain.QuoteStatusDraft, domain.QuoteStatusSent, true},
		{"draft to declined", domain.QuoteStatusDraft, domain.QuoteStatusDeclined, true},
		{"draft to accepted skips sent", domain.QuoteStatusDraft, domain.QuoteStatusAccepted, false},
		{"draft to expired", domain.QuoteStatusDraft, domain.QuoteStatusExpired, false},
		{"sent to accepted", domain.QuoteStatusSent, domain.QuoteStatusAccepted, true},
		{"sent to declined", domain.QuoteStatusSent, domain.QuoteStatusDeclined, true},
		{"sent to expired", domain.QuoteStatusSent, domain.QuoteStatusExpired, true},
		{"sent back to draft", domain.QuoteStatusSent, domain.QuoteStatusDraft, false},
		{"accepted is terminal", domain.QuoteStatusAccepted, domain.QuoteStatusSent, false},
		{"declined is terminal", domain.QuoteStatusDeclined, domain.QuoteStatusSent, false},
		{"expired is terminal", domain.QuoteStatusExpired, domain.QuoteStatusSent, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, transitionAllowed(tc.from, tc.to))
		})
	}
}

func TestInvoiceTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.InvoiceStatus
		to      domain.InvoiceStatus
		allowed bool
	}{
		{"draft to sent", domain.InvoiceStatusDraft, domain.InvoiceStatusSent, true},
		{"draft to paid skips sent", domain.InvoiceStatusDraft, domain.InvoiceStatusPaid, false},
		{"sent to paid", domain.InvoiceStatusSent, domain.InvoiceStatusPaid, true},
		{"sent to overdue", domain.InvoiceStatusSent, domain.InvoiceStatusOverdue, true},
		{"overdue to paid", domain.InvoiceStatusOverdue, domain.InvoiceStatusPaid, true},
		{"overdue back to sent", domain.InvoiceStatusOverdue, domain.InvoiceStatusSent, false},
		{"paid is terminal", domain.InvoiceStatusPaid, domain.InvoiceStatusSent, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, invoiceTransitionAllowed(tc.from, tc.to))
		})
	}
}

func TestAgreementTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.AgreementStatus
		to      domain.AgreementStatus
		allowed bool
	}{
		{"draft to generated", domain.AgreementStatusDraft, domain.AgreementStatusGenerated, true},
		{"draft to signed skips generated", domain.AgreementStatusDraft, domain.AgreementStatusSigned, false},
		{"generated to signed", domain.AgreementStatusGenerated, domain.AgreementStatusSigned, true},
		{"generated back to draft", domain.AgreementStatusGenerated, domain.AgreementStatusDraft, false},
		{"signed is terminal", domain.AgreementStatusSigned, domain.AgreementStatusGenerated, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, agreementTransitionAllowed(tc.from, tc.to))
		})
	}
}

func TestBuildLineItems(t *testing.T) {
	taxable := false
	reqs := []domain.CreateLineItemRequest{
		{Description: "Consulting", Quantity: 10, UnitPrice: 150},
		{Description: "License fee", Quantity: 1, UnitPrice: 500, Taxable: &taxable},
	}

	items := buildLineItems(reqs)

	assert.Len(t, items, 2)
	assert.Equal(t, "Consulting", items[0].Description)
	assert.True(t, items[0].Taxable, "taxable defaults to true")
	assert.Equal(t, 0, items[0].Position)
	assert.False(t, items[1].Taxable)
	assert.Equal(t, 1, items[1].Position)
}
