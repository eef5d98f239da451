package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetByID(ctx context.Context, companyID uuid.UUID) (*domain.CompanySettings, error) {
	var settings domain.CompanySettings
	if err := r.db.WithContext(ctx).Where("id = ?", companyID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *domain.CompanySettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

// GetForUpdate loads the settings row with a FOR UPDATE lock inside tx.
// The settings row doubles as the per-tenant sequence counter, so every
// number issuance serializes here.
func (r *SettingsRepository) GetForUpdate(tx *gorm.DB, companyID uuid.UUID) (*domain.CompanySettings, error) {
	var settings domain.CompanySettings
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", companyID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// NextSequence reserves the next sequence value for the given document kind
// inside tx and returns it together with the numbering format to render it
// with. The counter advance commits or rolls back with the document insert,
// so a failed conversion never burns a number.
func (r *SettingsRepository) NextSequence(tx *gorm.DB, companyID uuid.UUID, kind domain.DocumentKind) (int, string, error) {
	settings, err := r.GetForUpdate(tx, companyID)
	if err != nil {
		return 0, "", err
	}

	var seq int
	var format string
	switch kind {
	case domain.DocumentKindInvoice:
		seq = settings.NextInvoiceSequence
		format = settings.NumberingFormatInvoice
		settings.NextInvoiceSequence = seq + 1
	case domain.DocumentKindAgreement:
		// agreements number from the quote series
		seq = settings.NextQuoteSequence
		format = settings.NumberingFormatQuote
		settings.NextQuoteSequence = seq + 1
	default:
		return 0, "", fmt.Errorf("unknown document kind %q", kind)
	}

	if err := tx.Save(settings).Error; err != nil {
		return 0, "", err
	}
	return seq, format, nil
}

// NextQuoteSequence reserves the next number from the quote series outside
// a conversion, used when a quote is first created. Agreements draw from the
// same series, so this delegates to the agreement kind.
func (r *SettingsRepository) NextQuoteSequence(ctx context.Context, companyID uuid.UUID) (int, string, error) {
	var seq int
	var format string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		seq, format, txErr = r.NextSequence(tx, companyID, domain.DocumentKindAgreement)
		return txErr
	})
	return seq, format, err
}
