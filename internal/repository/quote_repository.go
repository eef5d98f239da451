package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// DB exposes the underlying handle so services can open transactions that
// span quotes, documents and the sequence counters.
func (r *QuoteRepository) DB() *gorm.DB {
	return r.db
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Client").
		Where("id = ?", id)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetByIDForUpdate loads a quote with a row lock inside tx. Used by the
// conversion flow so concurrent status transitions serialize on the quote.
func (r *QuoteRepository) GetByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Update persists the quote row only; line items are managed via ReplaceItems
func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quote).Error
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Quote{}, "id = ?", id).Error
}

// ReplaceItems swaps a quote's line items for the given set inside a
// transaction so totals never observe a partial item list.
func (r *QuoteRepository) ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []domain.LineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quoteID).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = quoteID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

type QuoteFilter struct {
	Status   domain.QuoteStatus
	ClientID *uuid.UUID
	OwnerID  string
	Search   string
}

func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, filter QuoteFilter, sort SortConfig) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quote{})
	query = ApplyCompanyFilter(ctx, query)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(quote_number) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, map[string]string{
		"createdAt":   "created_at",
		"updatedAt":   "updated_at",
		"total":       "total",
		"status":      "status",
		"quoteNumber": "quote_number",
		"validUntil":  "valid_until",
	}, "updated_at")

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Client").
		Offset(offset).Limit(pageSize).Order(orderClause).
		Find(&quotes).Error

	return quotes, total, err
}

// ExpireStale marks sent quotes whose validity date has passed as expired
// and returns how many rows changed. Used by the nightly expiry sweep.
func (r *QuoteRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("status = ?", domain.QuoteStatusSent).
		Where("valid_until IS NOT NULL AND valid_until < ?", now).
		Updates(map[string]interface{}{
			"status":     domain.QuoteStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
