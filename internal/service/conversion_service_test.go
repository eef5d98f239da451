package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/database"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupConversionTest connects to the test PostgreSQL database, or skips
// when none is reachable. Uses docker-compose defaults.
func setupConversionTest(t *testing.T) (*gorm.DB, *ConversionService) {
	t.Helper()

	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "billing_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "billing_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "billing_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("test database not reachable: %v", err)
	}

	require.NoError(t, database.AutoMigrate(db))

	quoteRepo := repository.NewQuoteRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	usageRepo := repository.NewUsageEventRepository(db)
	usageService := NewUsageService(usageRepo, templateRepo, zap.NewNop())

	svc := NewConversionService(db, quoteRepo, invoiceRepo, agreementRepo, templateRepo, settingsRepo, usageService, zap.NewNop())
	return db, svc
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type conversionFixture struct {
	settings *domain.CompanySettings
	client   *domain.Client
	quote    *domain.Quote
	template *domain.Template
	ctx      context.Context
}

// seedConversionFixture creates a company with a default agreement template
// and an accepted quote ready to convert. Everything is cleaned up with the
// test.
func seedConversionFixture(t *testing.T, db *gorm.DB) *conversionFixture {
	t.Helper()

	settings := &domain.CompanySettings{
		Name:                   "Fixture Co " + uuid.NewString()[:8],
		Currency:               "NOK",
		TaxPercent:             25,
		NumberingFormatInvoice: "INV-{YYYY}-{SEQ:4}",
		NumberingFormatQuote:   "QTE-{YYYY}-{SEQ:4}",
		NextInvoiceSequence:    1,
		NextQuoteSequence:      10,
		QuoteValidityDays:      30,
		InvoicePaymentTermDays: 14,
	}
	require.NoError(t, db.Create(settings).Error)

	template := &domain.Template{
		Name:      "Standard SLA",
		Category:  "sla",
		Content:   "Agreement for {{client_name}} totaling {{quote_total}} {{currency}}.",
		CompanyID: settings.ID,
		Variables: []domain.VariableDefinition{
			{Name: "client_name", DisplayName: "Client Name", Type: domain.VariableTypeText, Source: domain.DataSourceClient},
			{Name: "quote_total", DisplayName: "Quote Total", Type: domain.VariableTypeNumber, Source: domain.DataSourceQuote},
			{Name: "currency", DisplayName: "Currency", Type: domain.VariableTypeText, Source: domain.DataSourceCompany},
		},
	}
	require.NoError(t, db.Create(template).Error)

	settings.DefaultSLATemplateID = &template.ID
	require.NoError(t, db.Save(settings).Error)

	client := &domain.Client{
		Name:      "Acme AS",
		Email:     "post@acme.test",
		CompanyID: settings.ID,
	}
	require.NoError(t, db.Create(client).Error)

	quote := &domain.Quote{
		QuoteNumber:    "QTE-2026-0009",
		Status:         domain.QuoteStatusAccepted,
		OwnerID:        "user-fixture",
		ClientID:       client.ID,
		CompanyID:      settings.ID,
		Title:          "Annual service",
		DepositPercent: 10,
		Items: []domain.LineItem{
			{Description: "Service", Quantity: 2, UnitPrice: 5000, Taxable: true},
		},
	}
	quote.RecomputeTotals(settings.TaxPercent)
	require.NoError(t, db.Create(quote).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM usage_events WHERE template_id = ?", template.ID)
		db.Where("company_id = ?", settings.ID).Delete(&domain.ServiceAgreement{})
		db.Where("company_id = ?", settings.ID).Delete(&domain.Invoice{})
		db.Where("quote_id = ?", quote.ID).Delete(&domain.LineItem{})
		db.Where("company_id = ?", settings.ID).Delete(&domain.Quote{})
		db.Where("company_id = ?", settings.ID).Delete(&domain.Client{})
		db.Exec("UPDATE company_settings SET default_sla_template_id = NULL WHERE id = ?", settings.ID)
		db.Where("company_id = ?", settings.ID).Delete(&domain.Template{})
		db.Delete(settings)
	})

	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-fixture",
		Roles:     []domain.UserRoleType{domain.RoleManager},
		CompanyID: settings.ID,
	})

	return &conversionFixture{settings: settings, client: client, quote: quote, template: template, ctx: ctx}
}

func TestConvertToInvoice(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	invoice, result, err := svc.ConvertToInvoice(fx.ctx, fx.quote.ID, ConversionOptions{})
	require.NoError(t, err)
	require.NotNil(t, invoice)

	assert.True(t, result.Succeeded)
	assert.False(t, result.AlreadyExisted)
	assert.Equal(t, domain.DocumentKindInvoice, result.Kind)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().UTC().Year()), invoice.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, fx.quote.Total, invoice.Total)
	assert.Equal(t, domain.TriggerManualConversion, invoice.AutomationTrigger)
	require.NotNil(t, invoice.DueDate)

	// second conversion returns the same invoice and burns no sequence
	again, result2, err := svc.ConvertToInvoice(fx.ctx, fx.quote.ID, ConversionOptions{})
	require.NoError(t, err)
	assert.True(t, result2.Succeeded)
	assert.True(t, result2.AlreadyExisted)
	assert.Equal(t, invoice.ID, again.ID)

	var settings domain.CompanySettings
	require.NoError(t, db.First(&settings, "id = ?", fx.settings.ID).Error)
	assert.Equal(t, 2, settings.NextInvoiceSequence, "exactly one number consumed")
}

func TestConvertToInvoiceRequiresAcceptedQuote(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	require.NoError(t, db.Model(&domain.Quote{}).Where("id = ?", fx.quote.ID).
		Update("status", domain.QuoteStatusSent).Error)

	_, _, err := svc.ConvertToInvoice(fx.ctx, fx.quote.ID, ConversionOptions{})
	assert.ErrorIs(t, err, ErrQuoteNotConvertible)

	// nothing created, no sequence burned
	var count int64
	db.Model(&domain.Invoice{}).Where("created_from_quote_id = ?", fx.quote.ID).Count(&count)
	assert.Zero(t, count)

	var settings domain.CompanySettings
	require.NoError(t, db.First(&settings, "id = ?", fx.settings.ID).Error)
	assert.Equal(t, 1, settings.NextInvoiceSequence)
}

func TestConvertToInvoiceTenantIsolation(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	outsider := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "outsider",
		Roles:     []domain.UserRoleType{domain.RoleManager},
		CompanyID: uuid.New(),
	})

	_, _, err := svc.ConvertToInvoice(outsider, fx.quote.ID, ConversionOptions{})
	assert.ErrorIs(t, err, ErrNotFound, "foreign tenants must not learn the quote exists")
}

func TestConvertToAgreement(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	agreement, result, err := svc.ConvertToAgreement(fx.ctx, fx.quote.ID, ConversionOptions{})
	require.NoError(t, err)
	require.NotNil(t, agreement)

	assert.True(t, result.Succeeded)
	assert.False(t, result.AlreadyExisted)
	assert.Equal(t, domain.AgreementStatusGenerated, agreement.Status)
	assert.Equal(t, fx.template.ID, agreement.TemplateID)
	assert.Contains(t, agreement.Content, "Acme AS")
	assert.Contains(t, agreement.Content, "NOK")
	assert.NotContains(t, agreement.Content, "{{", "all placeholders resolved")

	// agreements draw numbers from the quote series
	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("QTE-%d-0010", year), agreement.AgreementNumber)

	var settings domain.CompanySettings
	require.NoError(t, db.First(&settings, "id = ?", fx.settings.ID).Error)
	assert.Equal(t, 11, settings.NextQuoteSequence)
	assert.Equal(t, 1, settings.NextInvoiceSequence, "invoice series untouched")

	// a success usage event was recorded against the template
	var events int64
	db.Model(&domain.UsageEvent{}).Where("template_id = ? AND outcome = ?", fx.template.ID, domain.UsageOutcomeSuccess).Count(&events)
	assert.Equal(t, int64(1), events)

	// the result reports where each placeholder value came from
	sources := make(map[string]domain.DataSource, len(result.Substitutions))
	for _, sub := range result.Substitutions {
		sources[sub.Name] = sub.DataSource
	}
	assert.Equal(t, domain.DataSourceClient, sources["client_name"])
	assert.Equal(t, domain.DataSourceQuote, sources["quote_total"])
	assert.Equal(t, domain.DataSourceCompany, sources["currency"])
}

func TestConvertToAgreementOverrideProvenance(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	_, result, err := svc.ConvertToAgreement(fx.ctx, fx.quote.ID, ConversionOptions{
		VariableOverrides: map[string]string{"quote_total": "9999.00"},
	})
	require.NoError(t, err)

	var totalSub *domain.SubstitutionDTO
	for i := range result.Substitutions {
		if result.Substitutions[i].Name == "quote_total" {
			totalSub = &result.Substitutions[i]
		}
	}
	require.NotNil(t, totalSub)
	assert.Equal(t, "9999.00", totalSub.Value)
	assert.Equal(t, domain.DataSourceUserInput, totalSub.DataSource)
	assert.False(t, totalSub.Timestamp.IsZero())
}

func TestConvertToAgreementRequiredVariableMissing(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	strict := &domain.Template{
		Name:      "Strict SLA",
		Category:  "sla",
		Content:   "PO {{po_number}} for {{client_name}}.",
		CompanyID: fx.settings.ID,
		Variables: []domain.VariableDefinition{
			{Name: "po_number", DisplayName: "PO Number", Type: domain.VariableTypeText, Source: domain.DataSourceUserInput, Required: true},
			{Name: "client_name", DisplayName: "Client Name", Type: domain.VariableTypeText, Source: domain.DataSourceClient},
		},
	}
	require.NoError(t, db.Create(strict).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM usage_events WHERE template_id = ?", strict.ID)
		db.Where("template_id = ?", strict.ID).Delete(&domain.ServiceAgreement{})
		db.Where("template_id = ?", strict.ID).Delete(&domain.VariableDefinition{})
		db.Delete(strict)
	})

	_, _, err := svc.ConvertToAgreement(fx.ctx, fx.quote.ID, ConversionOptions{TemplateID: &strict.ID})
	require.ErrorIs(t, err, ErrTemplateInvalid)
	assert.Contains(t, err.Error(), "po_number")

	// nothing persisted, no number burned
	var count int64
	db.Model(&domain.ServiceAgreement{}).Where("created_from_quote_id = ?", fx.quote.ID).Count(&count)
	assert.Zero(t, count)

	var settings domain.CompanySettings
	require.NoError(t, db.First(&settings, "id = ?", fx.settings.ID).Error)
	assert.Equal(t, 10, settings.NextQuoteSequence)

	// the failed generation shows up in usage analytics
	var events int64
	db.Model(&domain.UsageEvent{}).Where("template_id = ? AND outcome = ?", strict.ID, domain.UsageOutcomeFailure).Count(&events)
	assert.Equal(t, int64(1), events)

	// supplying the override completes the conversion
	agreement, _, err := svc.ConvertToAgreement(fx.ctx, fx.quote.ID, ConversionOptions{
		TemplateID:        &strict.ID,
		VariableOverrides: map[string]string{"po_number": "PO-2026-17"},
	})
	require.NoError(t, err)
	assert.Contains(t, agreement.Content, "PO-2026-17")
}

func TestConvertRequiresOwnershipOrElevatedRole(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	colleague := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-colleague",
		Roles:     []domain.UserRoleType{domain.RoleMember},
		CompanyID: fx.settings.ID,
	})

	_, _, err := svc.ConvertToInvoice(colleague, fx.quote.ID, ConversionOptions{})
	assert.ErrorIs(t, err, ErrPermissionDenied, "members may only convert their own quotes")

	owner := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    fx.quote.OwnerID,
		Roles:     []domain.UserRoleType{domain.RoleMember},
		CompanyID: fx.settings.ID,
	})
	_, _, err = svc.ConvertToInvoice(owner, fx.quote.ID, ConversionOptions{})
	assert.NoError(t, err)

	manager := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    "user-other-manager",
		Roles:     []domain.UserRoleType{domain.RoleManager},
		CompanyID: fx.settings.ID,
	})
	_, result, err := svc.ConvertToAgreement(manager, fx.quote.ID, ConversionOptions{})
	require.NoError(t, err, "managers convert any quote in their company")
	assert.True(t, result.Succeeded)
}

func TestConvertToInvoiceConcurrent(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	type outcome struct {
		invoice *domain.Invoice
		result  *domain.ConversionResultDTO
		err     error
	}
	outcomes := make(chan outcome, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			invoice, result, err := svc.ConvertToInvoice(fx.ctx, fx.quote.ID, ConversionOptions{})
			outcomes <- outcome{invoice, result, err}
		}()
	}
	start.Done()

	first := <-outcomes
	second := <-outcomes
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Equal(t, first.invoice.ID, second.invoice.ID, "both callers end up with the same invoice")
	assert.NotEqual(t, first.result.AlreadyExisted, second.result.AlreadyExisted, "exactly one caller created it")

	var count int64
	db.Model(&domain.Invoice{}).Where("created_from_quote_id = ?", fx.quote.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var settings domain.CompanySettings
	require.NoError(t, db.First(&settings, "id = ?", fx.settings.ID).Error)
	assert.Equal(t, 2, settings.NextInvoiceSequence, "exactly one number consumed")
}

func TestConvertToAgreementNoDefaultTemplate(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	require.NoError(t, db.Exec("UPDATE company_settings SET default_sla_template_id = NULL WHERE id = ?", fx.settings.ID).Error)

	_, _, err := svc.ConvertToAgreement(fx.ctx, fx.quote.ID, ConversionOptions{})
	assert.ErrorIs(t, err, ErrNoDefaultTemplate)
}

func TestConvertAll(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	results := svc.ConvertAll(fx.ctx, fx.quote.ID, fx.settings.ID)
	require.Len(t, results, 2)

	assert.Equal(t, domain.DocumentKindInvoice, results[0].Kind)
	assert.True(t, results[0].Succeeded)
	assert.Equal(t, domain.DocumentKindAgreement, results[1].Kind)
	assert.True(t, results[1].Succeeded)

	var invoice domain.Invoice
	require.NoError(t, db.First(&invoice, "created_from_quote_id = ?", fx.quote.ID).Error)
	assert.True(t, invoice.AutoGenerated)
	assert.Equal(t, domain.TriggerStatusChange, invoice.AutomationTrigger)
}

func TestConvertAllWithoutDefaultTemplate(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	require.NoError(t, db.Exec("UPDATE company_settings SET default_sla_template_id = NULL WHERE id = ?", fx.settings.ID).Error)

	results := svc.ConvertAll(fx.ctx, fx.quote.ID, fx.settings.ID)
	require.Len(t, results, 1, "invoice only when no default template is configured")
	assert.Equal(t, domain.DocumentKindInvoice, results[0].Kind)
}

func TestConvertAllReportsFailures(t *testing.T) {
	db, svc := setupConversionTest(t)
	fx := seedConversionFixture(t, db)

	require.NoError(t, db.Model(&domain.Quote{}).Where("id = ?", fx.quote.ID).
		Update("status", domain.QuoteStatusSent).Error)

	results := svc.ConvertAll(fx.ctx, fx.quote.ID, fx.settings.ID)
	require.Len(t, results, 2, "failed conversions are reported, not dropped")
	for _, result := range results {
		assert.False(t, result.Succeeded)
		assert.NotEmpty(t, result.Error)
	}
}
