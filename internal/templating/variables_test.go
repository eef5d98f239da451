package templating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordbooks/billing-api/internal/domain"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "distinct placeholders in order of first appearance",
			content:  "Dear {{client_name}}, total {{quote_total}} due. Regards, {{client_name}}.",
			expected: []string{"client_name", "quote_total"},
		},
		{
			name:     "whitespace inside braces is trimmed",
			content:  "{{ client_name }} and {{quote_total }}",
			expected: []string{"client_name", "quote_total"},
		},
		{
			name:     "unbalanced braces are literal text",
			content:  "{{client_name} and {quote_total}} and {{}}",
			expected: []string{},
		},
		{
			name:     "dotted and dashed names",
			content:  "{{client.address}} {{service-level}}",
			expected: []string{"client.address", "service-level"},
		},
		{
			name:     "no placeholders",
			content:  "plain text only",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractVariables(tt.content))
		})
	}
}

func TestResolve(t *testing.T) {
	defs := []domain.VariableDefinition{
		{Name: "service_level", DisplayName: "Service Level", Type: domain.VariableTypeEnum, DefaultValue: "standard"},
		{Name: "contact_person", DisplayName: "Contact Person", Type: domain.VariableTypeText},
	}
	content := "Level: {{service_level}}, contact: {{contact_person}}, client: {{client_name}}"
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	clientSource := map[string]SourceValue{
		"client_name": {"Acme", domain.DataSourceClient},
	}

	t.Run("override beats source beats default", func(t *testing.T) {
		res := Resolve(content, defs,
			map[string]SourceValue{
				"client_name":   {"Acme", domain.DataSourceClient},
				"service_level": {"gold", domain.DataSourceQuote},
			},
			map[string]string{"service_level": "platinum"},
			now,
		)
		values := res.Values()
		assert.Equal(t, "platinum", values["service_level"])
		assert.Equal(t, "Acme", values["client_name"])
		assert.Equal(t, []string{"contact_person"}, res.Missing)
	})

	t.Run("default fills when no source value exists", func(t *testing.T) {
		res := Resolve(content, defs, nil, nil, now)
		assert.Equal(t, "standard", res.Values()["service_level"])
		assert.Equal(t, []string{"contact_person"}, res.Missing)
	})

	t.Run("each substitution carries its data source and timestamp", func(t *testing.T) {
		res := Resolve(content, defs, clientSource, map[string]string{"service_level": "platinum"}, now)

		bySource := make(map[string]domain.DataSource, len(res.Substitutions))
		for _, sub := range res.Substitutions {
			bySource[sub.Name] = sub.DataSource
			assert.Equal(t, now, sub.Timestamp)
		}
		assert.Equal(t, domain.DataSourceUserInput, bySource["service_level"])
		assert.Equal(t, domain.DataSourceClient, bySource["client_name"])
	})

	t.Run("default value substitution is attributed to default_value", func(t *testing.T) {
		res := Resolve(content, defs, nil, nil, now)
		require.Len(t, res.Substitutions, 1)
		assert.Equal(t, "service_level", res.Substitutions[0].Name)
		assert.Equal(t, domain.DataSourceDefaultValue, res.Substitutions[0].DataSource)
	})

	t.Run("missing defined variable is empty in values but marked for rendering", func(t *testing.T) {
		res := Resolve(content, defs, clientSource, nil, now)
		_, resolved := res.Values()["contact_person"]
		assert.False(t, resolved)
		assert.Equal(t, "[Contact Person]", res.RenderValues()["contact_person"])
		assert.Equal(t, []string{"contact_person"}, res.Missing)
	})

	t.Run("undefined placeholder without a value stays literal", func(t *testing.T) {
		res := Resolve(content, defs, nil, nil, now)
		_, resolved := res.RenderValues()["client_name"]
		assert.False(t, resolved)
		assert.NotContains(t, res.Missing, "client_name")

		rendered := Substitute(content, res.RenderValues())
		assert.Contains(t, rendered, "{{client_name}}")
		assert.Contains(t, rendered, "[Contact Person]")
		assert.Contains(t, rendered, "standard")
	})

	t.Run("empty override falls through", func(t *testing.T) {
		res := Resolve(content, defs, clientSource, map[string]string{"client_name": ""}, now)
		assert.Equal(t, "Acme", res.Values()["client_name"])
	})
}

func TestResolveRequiredMissingFailsValidation(t *testing.T) {
	defs := []domain.VariableDefinition{
		{Name: "po_number", DisplayName: "PO Number", Type: domain.VariableTypeText, Required: true},
	}

	res := Resolve("PO: {{po_number}}", defs, nil, nil, time.Now())
	require.Equal(t, []string{"po_number"}, res.Missing)

	errs := ValidateAll(defs, res.Values())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "po_number")
}

func TestSubstitute(t *testing.T) {
	content := "Dear {{client_name}}, your total is {{quote_total}}."
	result := Substitute(content, map[string]string{
		"client_name": "Acme AS",
		"quote_total": "1250.00",
	})
	assert.Equal(t, "Dear Acme AS, your total is 1250.00.", result)

	t.Run("unknown placeholders stay literal", func(t *testing.T) {
		assert.Equal(t, "Hi {{nobody}}", Substitute("Hi {{nobody}}", map[string]string{}))
	})
}

func TestValidateValue(t *testing.T) {
	minVal, maxVal := 1.0, 100.0

	tests := []struct {
		name    string
		def     domain.VariableDefinition
		value   string
		wantErr bool
	}{
		{
			name:    "required empty fails",
			def:     domain.VariableDefinition{Name: "x", Type: domain.VariableTypeText, Required: true},
			value:   "",
			wantErr: true,
		},
		{
			name:  "optional empty passes",
			def:   domain.VariableDefinition{Name: "x", Type: domain.VariableTypeNumber},
			value: "",
		},
		{
			name:  "number in range",
			def:   domain.VariableDefinition{Name: "n", Type: domain.VariableTypeNumber, MinValue: &minVal, MaxValue: &maxVal},
			value: "50",
		},
		{
			name:    "number above max",
			def:     domain.VariableDefinition{Name: "n", Type: domain.VariableTypeNumber, MaxValue: &maxVal},
			value:   "101",
			wantErr: true,
		},
		{
			name:    "non-numeric number",
			def:     domain.VariableDefinition{Name: "n", Type: domain.VariableTypeNumber},
			value:   "abc",
			wantErr: true,
		},
		{
			name:  "valid date",
			def:   domain.VariableDefinition{Name: "d", Type: domain.VariableTypeDate},
			value: "2024-06-01",
		},
		{
			name:    "invalid date",
			def:     domain.VariableDefinition{Name: "d", Type: domain.VariableTypeDate},
			value:   "June 1st",
			wantErr: true,
		},
		{
			name:  "enum member",
			def:   domain.VariableDefinition{Name: "e", Type: domain.VariableTypeEnum, Options: []string{"gold", "silver"}},
			value: "gold",
		},
		{
			name:    "enum non-member",
			def:     domain.VariableDefinition{Name: "e", Type: domain.VariableTypeEnum, Options: []string{"gold", "silver"}},
			value:   "bronze",
			wantErr: true,
		},
		{
			name:  "text matching pattern",
			def:   domain.VariableDefinition{Name: "t", Type: domain.VariableTypeText, Pattern: `^[A-Z]{3}-\d+$`},
			value: "ABC-42",
		},
		{
			name:    "text failing pattern",
			def:     domain.VariableDefinition{Name: "t", Type: domain.VariableTypeText, Pattern: `^[A-Z]{3}-\d+$`},
			value:   "abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(tt.def, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSourceValues(t *testing.T) {
	validUntil := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	quote := &domain.Quote{
		QuoteNumber:      "QTE-2024-0003",
		Title:            "Annual maintenance",
		Subtotal:         1000,
		TaxAmount:        250,
		Total:            1250,
		DepositPercent:   20,
		DepositAmount:    250,
		BalanceRemaining: 1000,
		ValidUntil:       &validUntil,
	}
	client := &domain.Client{Name: "Acme AS", Email: "billing@acme.example"}
	settings := &domain.CompanySettings{Name: "Nordbooks", Currency: "NOK", TaxPercent: 25}

	values := SourceValues(quote, client, settings, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	require.Equal(t, SourceValue{"QTE-2024-0003", domain.DataSourceQuote}, values["quote_number"])
	assert.Equal(t, SourceValue{"1250.00", domain.DataSourceQuote}, values["quote_total"])
	assert.Equal(t, SourceValue{"Acme AS", domain.DataSourceClient}, values["client_name"])
	assert.Equal(t, SourceValue{"Nordbooks", domain.DataSourceCompany}, values["company_name"])
	assert.Equal(t, "2024-07-01", values["quote_valid_until"].Value)
	assert.Equal(t, "2024-06-15", values["current_date"].Value)

	t.Run("empty fields are omitted so defaults apply", func(t *testing.T) {
		_, hasPhone := values["client_phone"]
		assert.False(t, hasPhone)
	})
}
