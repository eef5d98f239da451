package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LifecycleJobName is the name of the document lifecycle sweep job
const LifecycleJobName = "document_lifecycle"

// DefaultLifecycleTimeout bounds how long a single sweep may run
const DefaultLifecycleTimeout = 2 * time.Minute

// QuoteExpiryService defines the interface for expiring stale quotes.
// This interface allows the job to call the service without importing
// the service package directly.
type QuoteExpiryService interface {
	// ExpireStale marks sent quotes past their validity date as expired.
	// Returns the number of quotes transitioned.
	ExpireStale(ctx context.Context) (int64, error)
}

// InvoiceOverdueService defines the interface for flagging overdue invoices.
type InvoiceOverdueService interface {
	// MarkOverdue marks sent invoices past their due date as overdue.
	// Returns the number of invoices transitioned.
	MarkOverdue(ctx context.Context) (int64, error)
}

// LifecycleJob sweeps time-driven document transitions: quotes whose
// validity window has passed and invoices past their due date.
type LifecycleJob struct {
	quoteService   QuoteExpiryService
	invoiceService InvoiceOverdueService
	logger         *zap.Logger
	timeout        time.Duration
}

// NewLifecycleJob creates a new document lifecycle sweep job.
func NewLifecycleJob(quoteService QuoteExpiryService, invoiceService InvoiceOverdueService, logger *zap.Logger, timeout time.Duration) *LifecycleJob {
	return &LifecycleJob{
		quoteService:   quoteService,
		invoiceService: invoiceService,
		logger:         logger,
		timeout:        timeout,
	}
}

// Run executes one sweep. Called by the scheduler according to the
// cron expression. Quote and invoice sweeps are independent so one
// failing does not block the other.
func (j *LifecycleJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	expired, err := j.quoteService.ExpireStale(ctx)
	if err != nil {
		j.logger.Error("quote expiry sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
	}

	var overdue int64
	if j.invoiceService != nil {
		overdue, err = j.invoiceService.MarkOverdue(ctx)
		if err != nil {
			j.logger.Error("invoice overdue sweep failed",
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
		}
	}

	if expired > 0 || overdue > 0 {
		j.logger.Info("document lifecycle sweep completed",
			zap.Int64("quotes_expired", expired),
			zap.Int64("invoices_overdue", overdue),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterLifecycleJob registers the lifecycle sweep with the scheduler.
// invoiceService can be nil if overdue flagging is not needed.
func RegisterLifecycleJob(scheduler *Scheduler, quoteService QuoteExpiryService, invoiceService InvoiceOverdueService, logger *zap.Logger, cronExpr string) error {
	job := NewLifecycleJob(quoteService, invoiceService, logger, DefaultLifecycleTimeout)
	return scheduler.AddJob(LifecycleJobName, cronExpr, job.Run)
}
