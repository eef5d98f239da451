package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/numbering"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsService manages per-company numbering and billing defaults
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	templateRepo *repository.TemplateRepository
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, templateRepo *repository.TemplateRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, templateRepo: templateRepo, logger: logger}
}

// Get returns the settings row for the caller's company
func (s *SettingsService) Get(ctx context.Context) (*domain.CompanySettings, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	settings, err := s.settingsRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settings, nil
}

// Update replaces the settings for the caller's company. Numbering
// formats are validated before they can reach the sequence codec, and
// sequence counters are never touched here.
func (s *SettingsService) Update(ctx context.Context, req domain.UpdateCompanySettingsRequest) (*domain.CompanySettings, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !user.HasPermission(domain.PermissionSettingsManage) {
		return nil, ErrPermissionDenied
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := numbering.ValidateFormat(req.NumberingFormatInvoice); err != nil {
		return nil, fmt.Errorf("%w: invoice format: %v", ErrInvalidNumberingFormat, err)
	}
	if err := numbering.ValidateFormat(req.NumberingFormatQuote); err != nil {
		return nil, fmt.Errorf("%w: quote format: %v", ErrInvalidNumberingFormat, err)
	}

	if req.DefaultSLATemplateID != nil {
		template, err := s.templateRepo.GetByID(ctx, *req.DefaultSLATemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: default agreement template does not exist", ErrInvalidInput)
			}
			return nil, err
		}
		if template.CompanyID != settings.ID {
			return nil, fmt.Errorf("%w: default agreement template does not exist", ErrInvalidInput)
		}
	}

	settings.Name = req.Name
	settings.Currency = req.Currency
	settings.TaxPercent = req.TaxPercent
	settings.NumberingFormatInvoice = req.NumberingFormatInvoice
	settings.NumberingFormatQuote = req.NumberingFormatQuote
	settings.DefaultSLATemplateID = req.DefaultSLATemplateID
	settings.QuoteValidityDays = req.QuoteValidityDays
	settings.InvoicePaymentTermDays = req.InvoicePaymentTermDays

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info("company settings updated", zap.String("company_id", settings.ID.String()))
	return settings, nil
}
