package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentSyncJobName is the name of the accounting payment sync job
const PaymentSyncJobName = "payment_sync"

// DefaultPaymentSyncTimeout bounds how long a single sync may run
const DefaultPaymentSyncTimeout = 5 * time.Minute

// SettlementSyncService defines the interface for reconciling unpaid
// invoices against the accounting warehouse.
type SettlementSyncService interface {
	// Sync marks invoices paid for every settlement found.
	// Returns the number of invoices marked paid.
	Sync(ctx context.Context) (int, error)
}

// PaymentSyncJob runs the accounting settlement reconciliation.
type PaymentSyncJob struct {
	syncService SettlementSyncService
	logger      *zap.Logger
	timeout     time.Duration
}

// NewPaymentSyncJob creates a new payment sync job.
func NewPaymentSyncJob(syncService SettlementSyncService, logger *zap.Logger, timeout time.Duration) *PaymentSyncJob {
	return &PaymentSyncJob{
		syncService: syncService,
		logger:      logger,
		timeout:     timeout,
	}
}

// Run executes one reconciliation pass.
func (j *PaymentSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	marked, err := j.syncService.Sync(ctx)
	if err != nil {
		j.logger.Error("payment sync job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if marked > 0 {
		j.logger.Info("payment sync job completed",
			zap.Int("invoices_marked_paid", marked),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterPaymentSyncJob registers the payment sync job with the
// scheduler. If runStartupSync is true a pass also runs immediately in
// a background goroutine so it doesn't block API startup.
func RegisterPaymentSyncJob(scheduler *Scheduler, syncService SettlementSyncService, logger *zap.Logger, cronExpr string, runStartupSync bool) error {
	job := NewPaymentSyncJob(syncService, logger, DefaultPaymentSyncTimeout)

	if runStartupSync {
		go job.Run()
	}

	return scheduler.AddJob(PaymentSyncJobName, cronExpr, job.Run)
}
