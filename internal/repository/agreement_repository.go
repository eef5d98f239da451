package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
)

type AgreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// CreateInTx inserts an agreement inside an existing transaction. The unique
// index on created_from_quote_id serializes racing conversions the same way
// invoices do.
func (r *AgreementRepository) CreateInTx(tx *gorm.DB, agreement *domain.ServiceAgreement) error {
	return tx.Create(agreement).Error
}

func (r *AgreementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceAgreement, error) {
	var agreement domain.ServiceAgreement
	query := r.db.WithContext(ctx).Preload("Quote").Where("id = ?", id)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// GetByQuoteID returns the agreement generated from a quote, if any
func (r *AgreementRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*domain.ServiceAgreement, error) {
	var agreement domain.ServiceAgreement
	query := r.db.WithContext(ctx).Where("created_from_quote_id = ?", quoteID)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// GetByQuoteIDInTx is the transactional variant used by the conversion flow
func (r *AgreementRepository) GetByQuoteIDInTx(tx *gorm.DB, quoteID uuid.UUID) (*domain.ServiceAgreement, error) {
	var agreement domain.ServiceAgreement
	if err := tx.Where("created_from_quote_id = ?", quoteID).First(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *AgreementRepository) Update(ctx context.Context, agreement *domain.ServiceAgreement) error {
	return r.db.WithContext(ctx).Save(agreement).Error
}

type AgreementFilter struct {
	Status     domain.AgreementStatus
	ClientID   *uuid.UUID
	TemplateID *uuid.UUID
	Search     string
}

func (r *AgreementRepository) List(ctx context.Context, page, pageSize int, filter AgreementFilter, sort SortConfig) ([]domain.ServiceAgreement, int64, error) {
	var agreements []domain.ServiceAgreement
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.ServiceAgreement{})
	query = ApplyCompanyFilter(ctx, query)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.TemplateID != nil {
		query = query.Where("template_id = ?", *filter.TemplateID)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(agreement_number) LIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, map[string]string{
		"createdAt":       "created_at",
		"updatedAt":       "updated_at",
		"status":          "status",
		"agreementNumber": "agreement_number",
	}, "updated_at")

	offset := (page - 1) * pageSize
	err := query.Preload("Quote").Offset(offset).Limit(pageSize).Order(orderClause).Find(&agreements).Error

	return agreements, total, err
}
