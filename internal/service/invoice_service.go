package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedInvoiceTransitions maps an invoice status to its valid successors.
// paid is terminal; overdue can still settle.
var allowedInvoiceTransitions = map[domain.InvoiceStatus][]domain.InvoiceStatus{
	domain.InvoiceStatusDraft:   {domain.InvoiceStatusSent},
	domain.InvoiceStatusSent:    {domain.InvoiceStatusPaid, domain.InvoiceStatusOverdue},
	domain.InvoiceStatusOverdue: {domain.InvoiceStatusPaid},
}

// InvoiceService serves invoices created by conversions. Invoices are never
// created directly; they only come from quotes.
type InvoiceService struct {
	invoiceRepo *repository.InvoiceRepository
	logger      *zap.Logger
}

func NewInvoiceService(invoiceRepo *repository.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo, logger: logger}
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// GetByQuoteID returns the invoice a quote converted into, if any
func (s *InvoiceService) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByQuoteID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return invoice, nil
}

// UpdateStatus applies a lifecycle transition. Marking paid stamps paidAt.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == status {
		return invoice, nil
	}
	if !invoiceTransitionAllowed(invoice.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, invoice.Status, status)
	}

	invoice.Status = status
	if status == domain.InvoiceStatusPaid {
		now := time.Now().UTC()
		invoice.PaidAt = &now
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice status updated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", string(status)),
	)
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filter repository.InvoiceFilter, sort repository.SortConfig) ([]domain.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, page, pageSize, filter, sort)
}

// MarkOverdue flags sent invoices past their due date, used by the sweep job
func (s *InvoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	flagged, err := s.invoiceRepo.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if flagged > 0 {
		s.logger.Info("flagged overdue invoices", zap.Int64("count", flagged))
	}
	return flagged, nil
}

func invoiceTransitionAllowed(from, to domain.InvoiceStatus) bool {
	for _, allowed := range allowedInvoiceTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
