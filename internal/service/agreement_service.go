package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedAgreementTransitions maps an agreement status to its valid
// successors. signed is terminal.
var allowedAgreementTransitions = map[domain.AgreementStatus][]domain.AgreementStatus{
	domain.AgreementStatusDraft:     {domain.AgreementStatusGenerated},
	domain.AgreementStatusGenerated: {domain.AgreementStatusSigned},
}

// AgreementService serves service agreements produced by conversions
type AgreementService struct {
	agreementRepo *repository.AgreementRepository
	logger        *zap.Logger
}

func NewAgreementService(agreementRepo *repository.AgreementRepository, logger *zap.Logger) *AgreementService {
	return &AgreementService{agreementRepo: agreementRepo, logger: logger}
}

func (s *AgreementService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceAgreement, error) {
	agreement, err := s.agreementRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return agreement, nil
}

// GetByQuoteID returns the agreement a quote converted into, if any
func (s *AgreementService) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*domain.ServiceAgreement, error) {
	agreement, err := s.agreementRepo.GetByQuoteID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return agreement, nil
}

// UpdateStatus applies a lifecycle transition
func (s *AgreementService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AgreementStatus) (*domain.ServiceAgreement, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	agreement, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Status == status {
		return agreement, nil
	}
	if !agreementTransitionAllowed(agreement.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, agreement.Status, status)
	}

	agreement.Status = status
	if err := s.agreementRepo.Update(ctx, agreement); err != nil {
		return nil, err
	}

	s.logger.Info("agreement status updated",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("status", string(status)),
	)
	return agreement, nil
}

func (s *AgreementService) List(ctx context.Context, page, pageSize int, filter repository.AgreementFilter, sort repository.SortConfig) ([]domain.ServiceAgreement, int64, error) {
	return s.agreementRepo.List(ctx, page, pageSize, filter, sort)
}

func agreementTransitionAllowed(from, to domain.AgreementStatus) bool {
	for _, allowed := range allowedAgreementTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
