package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/auth"
	"github.com/nordbooks/billing-api/internal/domain"
	"github.com/nordbooks/billing-api/internal/repository"
	"go.uber.org/zap"
)

const (
	// DefaultUsageWindowDays is used when a stats query names no window
	DefaultUsageWindowDays = 30
	// MaxUsageWindowDays bounds how far back usage queries may reach
	MaxUsageWindowDays = 365

	topTemplatesLimit = 10
)

// UsageService records template usage events and serves aggregated stats.
// Events are append-only; all statistics are computed from them at read time.
type UsageService struct {
	usageRepo    *repository.UsageEventRepository
	templateRepo *repository.TemplateRepository
	logger       *zap.Logger
}

func NewUsageService(usageRepo *repository.UsageEventRepository, templateRepo *repository.TemplateRepository, logger *zap.Logger) *UsageService {
	return &UsageService{
		usageRepo:    usageRepo,
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// RecordEvent appends a usage event. Recording is best-effort: a failure is
// logged but never propagated, so analytics problems cannot fail a
// generation that already succeeded.
func (s *UsageService) RecordEvent(ctx context.Context, templateID uuid.UUID, documentID *uuid.UUID, outcome domain.UsageOutcome) {
	userID := "system"
	if user, ok := auth.FromContext(ctx); ok {
		userID = user.UserID
	}

	event := &domain.UsageEvent{
		TemplateID: templateID,
		UserID:     userID,
		DocumentID: documentID,
		Outcome:    outcome,
	}
	if err := s.usageRepo.Create(ctx, event); err != nil {
		s.logger.Error("failed to record usage event",
			zap.String("template_id", templateID.String()),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}

// TemplateStats returns aggregated usage for one template over the window
func (s *UsageService) TemplateStats(ctx context.Context, templateID uuid.UUID, days int) (*domain.TemplateUsageStatsDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}

	// resolves the name and verifies tenant access in one go
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, ErrNotFound
	}

	stats, err := s.usageRepo.TemplateStats(ctx, templateID, windowStart(days))
	if err != nil {
		return nil, err
	}
	stats.TemplateName = template.Name
	return stats, nil
}

// UserStats returns aggregated usage for one user over the window
func (s *UsageService) UserStats(ctx context.Context, userID string, days int) (*domain.UserUsageStatsDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}
	return s.usageRepo.UserStats(ctx, userID, windowStart(days))
}

// Analytics returns the company-wide usage rollup over the window
func (s *UsageService) Analytics(ctx context.Context, days int) (*domain.UsageAnalyticsDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}
	since := windowStart(days)

	total, success, failure, activeUsers, err := s.usageRepo.Totals(ctx, since)
	if err != nil {
		return nil, err
	}

	topTemplates, err := s.usageRepo.TopTemplates(ctx, since, topTemplatesLimit)
	if err != nil {
		return nil, err
	}
	for i := range topTemplates {
		if template, err := s.templateRepo.GetByID(ctx, topTemplates[i].TemplateID); err == nil {
			topTemplates[i].TemplateName = template.Name
		}
	}

	perDay, err := s.usageRepo.EventsPerDay(ctx, since)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.UsageAnalyticsDTO{
		Days:         days,
		TotalEvents:  total,
		SuccessCount: success,
		FailureCount: failure,
		ActiveUsers:  activeUsers,
		TopTemplates: topTemplates,
		EventsPerDay: perDay,
		WindowStart:  since.Format(time.RFC3339),
		WindowEnd:    now.Format(time.RFC3339),
	}, nil
}

// normalizeWindow validates the day window, defaulting zero to the standard
// window and rejecting anything outside [1, MaxUsageWindowDays].
func normalizeWindow(days int) (int, error) {
	if days == 0 {
		return DefaultUsageWindowDays, nil
	}
	if days < 1 || days > MaxUsageWindowDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, MaxUsageWindowDays)
	}
	return days, nil
}

func windowStart(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
