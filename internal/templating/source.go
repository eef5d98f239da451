package templating

import (
	"fmt"
	"time"

	"github.com/nordbooks/billing-api/internal/domain"
)

// SourceValue is a value taken from a source document together with the
// data source it came from, so substitutions can report provenance.
type SourceValue struct {
	Value  string
	Source domain.DataSource
}

// SourceValues maps the well-known placeholder names to values taken from
// the quote being converted, its client and the company settings. These are
// the values a variable with a quote, client or company data source
// resolves to; caller overrides still take precedence in Resolve.
func SourceValues(quote *domain.Quote, client *domain.Client, settings *domain.CompanySettings, now time.Time) map[string]SourceValue {
	values := map[string]SourceValue{
		"current_date": {now.Format("2006-01-02"), domain.DataSourceCompany},
	}

	if settings != nil {
		values["company_name"] = SourceValue{settings.Name, domain.DataSourceCompany}
		values["currency"] = SourceValue{settings.Currency, domain.DataSourceCompany}
		values["tax_percent"] = SourceValue{formatAmount(settings.TaxPercent), domain.DataSourceCompany}
	}

	if client != nil {
		values["client_name"] = SourceValue{client.Name, domain.DataSourceClient}
		values["client_email"] = SourceValue{client.Email, domain.DataSourceClient}
		values["client_phone"] = SourceValue{client.Phone, domain.DataSourceClient}
		values["client_address"] = SourceValue{client.Address, domain.DataSourceClient}
		values["client_city"] = SourceValue{client.City, domain.DataSourceClient}
		values["client_postal_code"] = SourceValue{client.PostalCode, domain.DataSourceClient}
		values["client_country"] = SourceValue{client.Country, domain.DataSourceClient}
	}

	if quote != nil {
		values["quote_number"] = SourceValue{quote.QuoteNumber, domain.DataSourceQuote}
		values["quote_title"] = SourceValue{quote.Title, domain.DataSourceQuote}
		values["quote_subtotal"] = SourceValue{formatAmount(quote.Subtotal), domain.DataSourceQuote}
		values["quote_tax"] = SourceValue{formatAmount(quote.TaxAmount), domain.DataSourceQuote}
		values["quote_total"] = SourceValue{formatAmount(quote.Total), domain.DataSourceQuote}
		values["deposit_percent"] = SourceValue{formatAmount(quote.DepositPercent), domain.DataSourceQuote}
		values["deposit_amount"] = SourceValue{formatAmount(quote.DepositAmount), domain.DataSourceQuote}
		values["balance_remaining"] = SourceValue{formatAmount(quote.BalanceRemaining), domain.DataSourceQuote}
		if quote.ValidUntil != nil {
			values["quote_valid_until"] = SourceValue{quote.ValidUntil.Format("2006-01-02"), domain.DataSourceQuote}
		}
	}

	// drop pure-empty entries so defaults and markers can take over
	for name, v := range values {
		if v.Value == "" {
			delete(values, name)
		}
	}
	return values
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
