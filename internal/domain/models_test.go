package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeTotals(t *testing.T) {
	quote := &Quote{
		DepositPercent: 20,
		Items: []LineItem{
			{Description: "Design", Quantity: 10, UnitPrice: 100, Taxable: true},
			{Description: "Hosting", Quantity: 1, UnitPrice: 200, Taxable: false},
		},
	}

	quote.RecomputeTotals(25)

	assert.Equal(t, 1200.0, quote.Subtotal)
	assert.Equal(t, 250.0, quote.TaxAmount, "tax applies to taxable items only")
	assert.Equal(t, 1450.0, quote.Total)
	assert.Equal(t, 290.0, quote.DepositAmount)
	assert.Equal(t, 1160.0, quote.BalanceRemaining)
	assert.Equal(t, quote.Total, quote.Subtotal+quote.TaxAmount)
	assert.Equal(t, quote.Total, quote.DepositAmount+quote.BalanceRemaining)
}

func TestRecomputeTotalsRounding(t *testing.T) {
	quote := &Quote{
		DepositPercent: 33,
		Items: []LineItem{
			{Quantity: 3, UnitPrice: 33.33, Taxable: true},
		},
	}

	quote.RecomputeTotals(12.5)

	assert.Equal(t, 99.99, quote.Subtotal)
	assert.Equal(t, 12.5, quote.TaxAmount)
	assert.Equal(t, 112.49, quote.Total)
	assert.InDelta(t, quote.Total, quote.DepositAmount+quote.BalanceRemaining, 0.001,
		"deposit and balance always sum back to the total")
}

func TestRecomputeTotalsEmptyQuote(t *testing.T) {
	quote := &Quote{}
	quote.RecomputeTotals(25)

	assert.Zero(t, quote.Subtotal)
	assert.Zero(t, quote.TaxAmount)
	assert.Zero(t, quote.Total)
}

func TestQuoteStatusIsTerminal(t *testing.T) {
	assert.False(t, QuoteStatusDraft.IsTerminal())
	assert.False(t, QuoteStatusSent.IsTerminal())
	assert.True(t, QuoteStatusAccepted.IsTerminal())
	assert.True(t, QuoteStatusDeclined.IsTerminal())
	assert.True(t, QuoteStatusExpired.IsTerminal())
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, QuoteStatusAccepted.IsValid())
	assert.False(t, QuoteStatus("approved").IsValid())
	assert.True(t, InvoiceStatusOverdue.IsValid())
	assert.False(t, InvoiceStatus("cancelled").IsValid())
	assert.True(t, AgreementStatusSigned.IsValid())
	assert.False(t, AgreementStatus("").IsValid())
}
