package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// CreateInTx inserts an invoice inside an existing transaction. A unique
// index on created_from_quote_id turns a lost creation race into
// gorm.ErrDuplicatedKey for the caller to handle.
func (r *InvoiceRepository) CreateInTx(tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	query := r.db.WithContext(ctx).Preload("Quote").Where("id = ?", id)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByQuoteID returns the invoice created from a quote, if any
func (r *InvoiceRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	query := r.db.WithContext(ctx).Where("created_from_quote_id = ?", quoteID)
	query = ApplyCompanyFilter(ctx, query)
	if err := query.First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetByQuoteIDInTx is the transactional variant used by the conversion flow
func (r *InvoiceRepository) GetByQuoteIDInTx(tx *gorm.DB, quoteID uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := tx.Where("created_from_quote_id = ?", quoteID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

type InvoiceFilter struct {
	Status   domain.InvoiceStatus
	ClientID *uuid.UUID
	Search   string
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, filter InvoiceFilter, sort SortConfig) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	query = ApplyCompanyFilter(ctx, query)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(invoice_number) LIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, map[string]string{
		"createdAt":     "created_at",
		"updatedAt":     "updated_at",
		"total":         "total",
		"status":        "status",
		"invoiceNumber": "invoice_number",
		"dueDate":       "due_date",
	}, "updated_at")

	offset := (page - 1) * pageSize
	err := query.Preload("Quote").Offset(offset).Limit(pageSize).Order(orderClause).Find(&invoices).Error

	return invoices, total, err
}

// ListUnpaidNumbers returns the numbers of invoices still awaiting payment,
// used by the accounting sync job to bound its warehouse query.
func (r *InvoiceRepository) ListUnpaidNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status IN ?", []domain.InvoiceStatus{domain.InvoiceStatusSent, domain.InvoiceStatusOverdue}).
		Pluck("invoice_number", &numbers).Error
	return numbers, err
}

// MarkPaid sets an invoice paid by its number, recording the settlement time
func (r *InvoiceRepository) MarkPaid(ctx context.Context, invoiceNumber string, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("invoice_number = ?", invoiceNumber).
		Where("status <> ?", domain.InvoiceStatusPaid).
		Updates(map[string]interface{}{
			"status":  domain.InvoiceStatusPaid,
			"paid_at": paidAt,
		})
	return result.RowsAffected, result.Error
}

// MarkOverdue flags sent invoices past their due date
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status = ?", domain.InvoiceStatusSent).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Update("status", domain.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}
