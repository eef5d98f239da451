package service

import (
	"context"

	"github.com/nordbooks/billing-api/internal/accounting"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
)

// PaymentSyncService reconciles unpaid invoices against settlements
// recorded in the accounting warehouse.
type PaymentSyncService struct {
	accountingClient *accounting.Client
	invoiceRepo      *repository.InvoiceRepository
	logger           *zap.Logger
}

func NewPaymentSyncService(accountingClient *accounting.Client, invoiceRepo *repository.InvoiceRepository, logger *zap.Logger) *PaymentSyncService {
	return &PaymentSyncService{
		accountingClient: accountingClient,
		invoiceRepo:      invoiceRepo,
		logger:           logger,
	}
}

// Sync marks invoices paid for every settlement the warehouse knows
// about. A nil accounting client makes this a no-op so the service can
// run in environments without warehouse access.
func (s *PaymentSyncService) Sync(ctx context.Context) (int, error) {
	if s.accountingClient == nil {
		s.logger.Debug("payment sync skipped, accounting client not configured")
		return 0, nil
	}

	numbers, err := s.invoiceRepo.ListUnpaidNumbers(ctx)
	if err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 0, nil
	}

	settlements, err := s.accountingClient.FetchSettlements(ctx, numbers)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, settlement := range settlements {
		updated, err := s.invoiceRepo.MarkPaid(ctx, settlement.InvoiceNumber, settlement.PaidAt)
		if err != nil {
			s.logger.Error("failed to mark invoice paid",
				zap.String("invoice_number", settlement.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		marked += int(updated)
	}

	if marked > 0 {
		s.logger.Info("payment sync completed",
			zap.Int("unpaid_checked", len(numbers)),
			zap.Int("marked_paid", marked),
		)
	}
	return marked, nil
}
