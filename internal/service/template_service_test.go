package service

import (
	"strings"
	"testing"

	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTemplateTest(t *testing.T) (*gorm.DB, *TemplateService) {
	t.Helper()

	db, _ := setupConversionTest(t)

	templateRepo := repository.NewTemplateRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	clientRepo := repository.NewClientRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	usageRepo := repository.NewUsageEventRepository(db)
	usageService := NewUsageService(usageRepo, templateRepo, zap.NewNop())

	return db, NewTemplateService(templateRepo, quoteRepo, clientRepo, settingsRepo, usageService, zap.NewNop())
}

func TestCloneValidatesName(t *testing.T) {
	db, svc := setupTemplateTest(t)
	fx := seedConversionFixture(t, db)

	_, err := svc.Clone(fx.ctx, fx.template.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput, "empty clone name is rejected")

	_, err = svc.Clone(fx.ctx, fx.template.ID, strings.Repeat("x", 201))
	assert.ErrorIs(t, err, ErrInvalidInput, "overlong clone name is rejected")

	clone, err := svc.Clone(fx.ctx, fx.template.ID, "Standard SLA v2")
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Where("template_id = ?", clone.ID).Delete(&domain.VariableDefinition{})
		db.Delete(clone)
	})
	assert.Equal(t, "Standard SLA v2", clone.Name)
	assert.Equal(t, fx.template.Content, clone.Content)
}

func TestPreviewReportsValidationErrors(t *testing.T) {
	db, svc := setupTemplateTest(t)
	fx := seedConversionFixture(t, db)

	strict := &domain.Template{
		Name:      "Strict preview",
		Category:  "sla",
		Content:   "PO {{po_number}} for {{client_name}}.",
		CompanyID: fx.settings.ID,
		Variables: []domain.VariableDefinition{
			{Name: "po_number", DisplayName: "PO Number", Type: domain.VariableTypeText, Source: domain.DataSourceUserInput, Required: true},
		},
	}
	require.NoError(t, db.Create(strict).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM usage_events WHERE template_id = ?", strict.ID)
		db.Where("template_id = ?", strict.ID).Delete(&domain.VariableDefinition{})
		db.Delete(strict)
	})

	result, err := svc.Preview(fx.ctx, strict.ID, &domain.PreviewTemplateRequest{})
	require.NoError(t, err, "violations come back in the result, not as an error")

	require.Len(t, result.ValidationErrors, 1)
	assert.Contains(t, result.ValidationErrors[0], "po_number")
	assert.Equal(t, []string{"po_number"}, result.MissingVariables)
	assert.Contains(t, result.Content, "[PO Number]", "draft still renders with markers")

	var events int64
	db.Model(&domain.UsageEvent{}).Where("template_id = ? AND outcome = ?", strict.ID, domain.UsageOutcomeFailure).Count(&events)
	assert.Equal(t, int64(1), events)
}

func TestPreviewWithQuoteReportsSubstitutions(t *testing.T) {
	db, svc := setupTemplateTest(t)
	fx := seedConversionFixture(t, db)

	result, err := svc.Preview(fx.ctx, fx.template.ID, &domain.PreviewTemplateRequest{
		QuoteID: &fx.quote.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, result.ValidationErrors)
	assert.Empty(t, result.MissingVariables)
	assert.Contains(t, result.Content, "Acme AS")

	sources := make(map[string]domain.DataSource, len(result.Substitutions))
	for _, sub := range result.Substitutions {
		sources[sub.Name] = sub.DataSource
		assert.False(t, sub.Timestamp.IsZero())
	}
	assert.Equal(t, domain.DataSourceClient, sources["client_name"])
	assert.Equal(t, domain.DataSourceQuote, sources["quote_total"])
	assert.Equal(t, domain.DataSourceCompany, sources["currency"])
}
