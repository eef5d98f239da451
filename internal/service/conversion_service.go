package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/numbering"
	"github.com/nordbooks/billing-api/internal/repository"
	"github.com/nordbooks/billing-api/internal/templating"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversionService turns accepted quotes into downstream documents.
// Each conversion is exactly-once per (quote, document kind): a unique index
// on created_from_quote_id backs the idempotency, and the entire conversion
// (sequence reservation included) runs in one transaction so a failure never
// burns a number or leaves a half-made document.
type ConversionService struct {
	db            *gorm.DB
	quoteRepo     *repository.QuoteRepository
	invoiceRepo   *repository.InvoiceRepository
	agreementRepo *repository.AgreementRepository
	templateRepo  *repository.TemplateRepository
	settingsRepo  *repository.SettingsRepository
	usageService  *UsageService
	logger        *zap.Logger
}

func NewConversionService(
	db *gorm.DB,
	quoteRepo *repository.QuoteRepository,
	invoiceRepo *repository.InvoiceRepository,
	agreementRepo *repository.AgreementRepository,
	templateRepo *repository.TemplateRepository,
	settingsRepo *repository.SettingsRepository,
	usageService *UsageService,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		db:            db,
		quoteRepo:     quoteRepo,
		invoiceRepo:   invoiceRepo,
		agreementRepo: agreementRepo,
		templateRepo:  templateRepo,
		settingsRepo:  settingsRepo,
		usageService:  usageService,
		logger:        logger,
	}
}

// ConversionOptions carries optional inputs for a conversion
type ConversionOptions struct {
	// TemplateID selects the agreement template; nil falls back to the
	// company default. Ignored for invoice conversions.
	TemplateID *uuid.UUID
	// VariableOverrides take precedence over quote-derived values
	VariableOverrides map[string]string
	// Trigger records whether this was an explicit request or a status change
	Trigger domain.AutomationTrigger
}

// ConvertToInvoice creates (or returns the existing) invoice for a quote
func (s *ConversionService) ConvertToInvoice(ctx context.Context, quoteID uuid.UUID, opts ConversionOptions) (*domain.Invoice, *domain.ConversionResultDTO, error) {
	if opts.Trigger == "" {
		opts.Trigger = domain.TriggerManualConversion
	}

	var invoice *domain.Invoice
	result := &domain.ConversionResultDTO{Kind: domain.DocumentKindInvoice}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockConvertibleQuote(ctx, tx, quoteID)
		if err != nil {
			return err
		}

		// idempotency: a prior conversion wins
		if existing, err := s.invoiceRepo.GetByQuoteIDInTx(tx, quoteID); err == nil {
			invoice = existing
			result.AlreadyExisted = true
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		settings, err := s.settingsRepo.GetForUpdate(tx, quote.CompanyID)
		if err != nil {
			return err
		}

		seq, format, err := s.settingsRepo.NextSequence(tx, quote.CompanyID, domain.DocumentKindInvoice)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		number, err := numbering.Format(format, seq, now.Year())
		if err != nil {
			s.logger.Error("unusable invoice numbering format",
				zap.String("company_id", quote.CompanyID.String()),
				zap.String("format", format),
				zap.Error(err),
			)
			return err
		}

		dueDate := now.AddDate(0, 0, settings.InvoicePaymentTermDays)
		invoice = &domain.Invoice{
			InvoiceNumber:      number,
			Status:             domain.InvoiceStatusDraft,
			CreatedFromQuoteID: quote.ID,
			ClientID:           quote.ClientID,
			CompanyID:          quote.CompanyID,
			OwnerID:            quote.OwnerID,
			Subtotal:           quote.Subtotal,
			TaxAmount:          quote.TaxAmount,
			Total:              quote.Total,
			DepositPercent:     quote.DepositPercent,
			DepositAmount:      quote.DepositAmount,
			BalanceRemaining:   quote.BalanceRemaining,
			DueDate:            &dueDate,
			AutoGenerated:      opts.Trigger == domain.TriggerStatusChange,
			AutomationTrigger:  opts.Trigger,
			GeneratedAt:        now,
		}

		return s.invoiceRepo.CreateInTx(tx, invoice)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race, adopt the winner's invoice. The fetch has to run
		// outside the transaction: the duplicate key aborted it, so any
		// further statement inside it would fail too.
		winner, fetchErr := s.invoiceRepo.GetByQuoteID(ctx, quoteID)
		if fetchErr != nil {
			return nil, nil, fetchErr
		}
		invoice = winner
		result.AlreadyExisted = true
	} else if err != nil {
		return nil, nil, err
	}

	result.Succeeded = true
	result.DocumentID = invoice.ID
	result.DocumentNumber = invoice.InvoiceNumber

	s.logger.Info("quote conversion",
		zap.String("kind", string(domain.DocumentKindInvoice)),
		zap.String("quote_id", quoteID.String()),
		zap.String("document_number", invoice.InvoiceNumber),
		zap.Bool("already_existed", result.AlreadyExisted),
		zap.String("trigger", string(opts.Trigger)),
	)

	return invoice, result, nil
}

// ConvertToAgreement creates (or returns the existing) service agreement for
// a quote, rendering the selected template against the quote's data.
func (s *ConversionService) ConvertToAgreement(ctx context.Context, quoteID uuid.UUID, opts ConversionOptions) (*domain.ServiceAgreement, *domain.ConversionResultDTO, error) {
	if opts.Trigger == "" {
		opts.Trigger = domain.TriggerManualConversion
	}

	var agreement *domain.ServiceAgreement
	var usedTemplateID uuid.UUID
	result := &domain.ConversionResultDTO{Kind: domain.DocumentKindAgreement}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.lockConvertibleQuote(ctx, tx, quoteID)
		if err != nil {
			return err
		}

		if existing, err := s.agreementRepo.GetByQuoteIDInTx(tx, quoteID); err == nil {
			agreement = existing
			result.AlreadyExisted = true
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		settings, err := s.settingsRepo.GetForUpdate(tx, quote.CompanyID)
		if err != nil {
			return err
		}

		templateID := opts.TemplateID
		if templateID == nil {
			templateID = settings.DefaultSLATemplateID
		}
		if templateID == nil {
			return ErrNoDefaultTemplate
		}

		var template domain.Template
		if err := tx.Preload("Variables").Where("id = ? AND company_id = ?", *templateID, quote.CompanyID).
			First(&template).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: template %s", ErrNotFound, templateID)
			}
			return err
		}
		usedTemplateID = template.ID

		var client domain.Client
		if err := tx.Where("id = ?", quote.ClientID).First(&client).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		sourceValues := templating.SourceValues(quote, &client, settings, now)
		res := templating.Resolve(template.Content, template.Variables, sourceValues, opts.VariableOverrides, now)

		// a missing variable is empty as far as validation is concerned,
		// so a required one fails here and aborts before anything is written
		if errs := templating.ValidateAll(template.Variables, res.Values()); len(errs) > 0 {
			return fmt.Errorf("%w: %v", ErrTemplateInvalid, errors.Join(errs...))
		}
		if len(res.Missing) > 0 {
			s.logger.Warn("agreement rendered with unresolved variables",
				zap.String("quote_id", quoteID.String()),
				zap.String("template_id", template.ID.String()),
				zap.Strings("missing", res.Missing),
			)
		}
		result.Substitutions = substitutionDTOs(res.Substitutions)

		seq, format, err := s.settingsRepo.NextSequence(tx, quote.CompanyID, domain.DocumentKindAgreement)
		if err != nil {
			return err
		}

		number, err := numbering.Format(format, seq, now.Year())
		if err != nil {
			s.logger.Error("unusable agreement numbering format",
				zap.String("company_id", quote.CompanyID.String()),
				zap.String("format", format),
				zap.Error(err),
			)
			return err
		}

		agreement = &domain.ServiceAgreement{
			AgreementNumber:    number,
			Status:             domain.AgreementStatusGenerated,
			CreatedFromQuoteID: quote.ID,
			ClientID:           quote.ClientID,
			CompanyID:          quote.CompanyID,
			OwnerID:            quote.OwnerID,
			TemplateID:         template.ID,
			Content:            templating.Substitute(template.Content, res.RenderValues()),
			Subtotal:           quote.Subtotal,
			TaxAmount:          quote.TaxAmount,
			Total:              quote.Total,
			DepositPercent:     quote.DepositPercent,
			DepositAmount:      quote.DepositAmount,
			BalanceRemaining:   quote.BalanceRemaining,
			AutoGenerated:      opts.Trigger == domain.TriggerStatusChange,
			AutomationTrigger:  opts.Trigger,
			GeneratedAt:        now,
		}

		return s.agreementRepo.CreateInTx(tx, agreement)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// adopt the winner's agreement; fetched outside the transaction the
		// duplicate key already aborted
		winner, fetchErr := s.agreementRepo.GetByQuoteID(ctx, quoteID)
		if fetchErr != nil {
			return nil, nil, fetchErr
		}
		agreement = winner
		result.AlreadyExisted = true
		result.Substitutions = nil
	} else if err != nil {
		// record the failed generation for usage analytics, outside the
		// rolled-back transaction
		if usedTemplateID != uuid.Nil && errors.Is(err, ErrTemplateInvalid) {
			s.usageService.RecordEvent(ctx, usedTemplateID, nil, domain.UsageOutcomeFailure)
		}
		return nil, nil, err
	}

	result.Succeeded = true
	result.DocumentID = agreement.ID
	result.DocumentNumber = agreement.AgreementNumber

	if !result.AlreadyExisted {
		s.usageService.RecordEvent(ctx, agreement.TemplateID, &agreement.ID, domain.UsageOutcomeSuccess)
	}

	s.logger.Info("quote conversion",
		zap.String("kind", string(domain.DocumentKindAgreement)),
		zap.String("quote_id", quoteID.String()),
		zap.String("document_number", agreement.AgreementNumber),
		zap.Bool("already_existed", result.AlreadyExisted),
		zap.String("trigger", string(opts.Trigger)),
	)

	return agreement, result, nil
}

// ConvertAll runs the automation that fires when a quote transitions to
// accepted: an invoice is always generated; an agreement only when the
// company has a default template. Each kind converts independently and a
// failure in one does not undo the other; a failed kind is still reported
// in the results with its error so the caller sees the partial outcome.
func (s *ConversionService) ConvertAll(ctx context.Context, quoteID uuid.UUID, companyID uuid.UUID) []domain.ConversionResultDTO {
	opts := ConversionOptions{Trigger: domain.TriggerStatusChange}
	var results []domain.ConversionResultDTO

	if _, result, err := s.ConvertToInvoice(ctx, quoteID, opts); err != nil {
		s.logger.Error("automatic invoice conversion failed",
			zap.String("quote_id", quoteID.String()),
			zap.Error(err),
		)
		results = append(results, domain.ConversionResultDTO{
			Kind:  domain.DocumentKindInvoice,
			Error: err.Error(),
		})
	} else {
		results = append(results, *result)
	}

	settings, err := s.settingsRepo.GetByID(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to load settings for agreement automation",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
		results = append(results, domain.ConversionResultDTO{
			Kind:  domain.DocumentKindAgreement,
			Error: err.Error(),
		})
		return results
	}
	if settings.DefaultSLATemplateID == nil {
		return results
	}

	if _, result, err := s.ConvertToAgreement(ctx, quoteID, opts); err != nil {
		s.logger.Error("automatic agreement conversion failed",
			zap.String("quote_id", quoteID.String()),
			zap.Error(err),
		)
		results = append(results, domain.ConversionResultDTO{
			Kind:  domain.DocumentKindAgreement,
			Error: err.Error(),
		})
	} else {
		results = append(results, *result)
	}

	return results
}

// lockConvertibleQuote loads the quote with a row lock and verifies the
// caller may convert it and that it is in the accepted state.
func (s *ConversionService) lockConvertibleQuote(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByIDForUpdate(tx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !repository.MustHaveCompanyAccess(ctx, quote.CompanyID) {
		return nil, ErrNotFound
	}

	if user, ok := auth.FromContext(ctx); ok {
		if !user.HasPermission(domain.PermissionQuotesConvert) {
			return nil, ErrPermissionDenied
		}
		// members may only convert their own quotes
		if quote.OwnerID != user.UserID && !user.HasAnyRole(domain.RoleManager, domain.RoleAdmin, domain.RoleSystem) {
			return nil, ErrPermissionDenied
		}
	}

	if quote.Status != domain.QuoteStatusAccepted {
		return nil, fmt.Errorf("%w: status is %s", ErrQuoteNotConvertible, quote.Status)
	}

	return quote, nil
}

// substitutionDTOs converts a resolution's audit trail for API responses
func substitutionDTOs(subs []templating.Substitution) []domain.SubstitutionDTO {
	if len(subs) == 0 {
		return nil
	}
	out := make([]domain.SubstitutionDTO, len(subs))
	for i, sub := range subs {
		out[i] = domain.SubstitutionDTO{
			Name:       sub.Name,
			Value:      sub.Value,
			DataSource: sub.DataSource,
			Timestamp:  sub.Timestamp,
		}
	}
	return out
}
