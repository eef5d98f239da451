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
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedQuoteTransitions maps a status to the statuses it may move to.
// Terminal statuses have no exits.
var allowedQuoteTransitions = map[domain.QuoteStatus][]domain.QuoteStatus{
	domain.QuoteStatusDraft: {domain.QuoteStatusSent, domain.QuoteStatusDeclined},
	domain.QuoteStatusSent:  {domain.QuoteStatusAccepted, domain.QuoteStatusDeclined, domain.QuoteStatusExpired},
}

// QuoteService manages the quote lifecycle. A transition into accepted
// triggers document conversion as a side effect of the update.
type QuoteService struct {
	quoteRepo    *repository.QuoteRepository
	clientRepo   *repository.ClientRepository
	settingsRepo *repository.SettingsRepository
	conversions  *ConversionService
	logger       *zap.Logger
}

func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	clientRepo *repository.ClientRepository,
	settingsRepo *repository.SettingsRepository,
	conversions *ConversionService,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		clientRepo:   clientRepo,
		settingsRepo: settingsRepo,
		conversions:  conversions,
		logger:       logger,
	}
}

func (s *QuoteService) Create(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.Quote, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, req.ClientID)
		}
		return nil, err
	}

	settings, err := s.settingsRepo.GetByID(ctx, client.CompanyID)
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		Status:         domain.QuoteStatusDraft,
		OwnerID:        user.UserID,
		ClientID:       client.ID,
		CompanyID:      client.CompanyID,
		Title:          req.Title,
		Items:          buildLineItems(req.Items),
		DepositPercent: req.DepositPercent,
		ValidUntil:     req.ValidUntil,
		Notes:          req.Notes,
		Terms:          req.Terms,
	}
	if quote.ValidUntil == nil {
		validUntil := time.Now().UTC().AddDate(0, 0, settings.QuoteValidityDays)
		quote.ValidUntil = &validUntil
	}
	quote.RecomputeTotals(settings.TaxPercent)

	seq, format, err := s.settingsRepo.NextQuoteSequence(ctx, client.CompanyID)
	if err != nil {
		return nil, err
	}
	quote.QuoteNumber, err = numbering.Format(format, seq, time.Now().UTC().Year())
	if err != nil {
		s.logger.Error("unusable quote numbering format",
			zap.String("company_id", client.CompanyID.String()),
			zap.String("format", format),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.String("quote_number", quote.QuoteNumber),
		zap.String("client_id", client.ID.String()),
	)
	return quote, nil
}

func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quote, nil
}

// Update applies edits and a status transition. When the transition enters
// accepted, conversion automation fires after the quote is saved; conversion
// results are returned but a conversion failure never rolls back the update.
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.Quote, []domain.ConversionResultDTO, error) {
	if !req.Status.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	statusChanged := quote.Status != req.Status
	if statusChanged && !transitionAllowed(quote.Status, req.Status) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, quote.Status, req.Status)
	}
	if quote.Status.IsTerminal() && !statusChanged {
		return nil, nil, fmt.Errorf("%w: quote is %s", ErrInvalidStatusTransition, quote.Status)
	}

	settings, err := s.settingsRepo.GetByID(ctx, quote.CompanyID)
	if err != nil {
		return nil, nil, err
	}

	// content edits are only honored before the quote leaves draft
	if quote.Status == domain.QuoteStatusDraft {
		quote.Title = req.Title
		quote.DepositPercent = req.DepositPercent
		quote.Notes = req.Notes
		quote.Terms = req.Terms
		if req.ValidUntil != nil {
			quote.ValidUntil = req.ValidUntil
		}
		items := buildLineItems(req.Items)
		if err := s.quoteRepo.ReplaceItems(ctx, quote.ID, items); err != nil {
			return nil, nil, err
		}
		quote.Items = items
		quote.RecomputeTotals(settings.TaxPercent)
	}

	quote.Status = req.Status
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, nil, err
	}

	var conversions []domain.ConversionResultDTO
	if statusChanged && req.Status == domain.QuoteStatusAccepted {
		conversions = s.conversions.ConvertAll(ctx, quote.ID, quote.CompanyID)
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, conversions, nil
}

// Delete removes a quote; only drafts may be deleted
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status != domain.QuoteStatusDraft {
		return fmt.Errorf("%w: only draft quotes can be deleted", ErrConflict)
	}
	return s.quoteRepo.Delete(ctx, id)
}

func (s *QuoteService) List(ctx context.Context, page, pageSize int, filter repository.QuoteFilter, sort repository.SortConfig) ([]domain.Quote, int64, error) {
	return s.quoteRepo.List(ctx, page, pageSize, filter, sort)
}

// ExpireStale transitions sent quotes past their validity date to expired.
// Invoked by the nightly sweep job.
func (s *QuoteService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.quoteRepo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired stale quotes", zap.Int64("count", expired))
	}
	return expired, nil
}

func transitionAllowed(from, to domain.QuoteStatus) bool {
	for _, allowed := range allowedQuoteTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func buildLineItems(reqs []domain.CreateLineItemRequest) []domain.LineItem {
	items := make([]domain.LineItem, len(reqs))
	for i, req := range reqs {
		taxable := true
		if req.Taxable != nil {
			taxable = *req.Taxable
		}
		items[i] = domain.LineItem{
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			Taxable:     taxable,
			Position:    i,
		}
	}
	return items
}
