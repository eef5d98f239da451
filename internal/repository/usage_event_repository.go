package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
	"gorm.io/gorm"
)

type UsageEventRepository struct {
	db *gorm.DB
}

func NewUsageEventRepository(db *gorm.DB) *UsageEventRepository {
	return &UsageEventRepository{db: db}
}

// Create appends a usage event. Events are immutable once written.
func (r *UsageEventRepository) Create(ctx context.Context, event *domain.UsageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// templateStatsRow is the scan target for aggregated template usage
type templateStatsRow struct {
	TemplateID   uuid.UUID
	TotalUses    int64
	SuccessCount int64
	FailureCount int64
	UniqueUsers  int64
	LastUsedAt   *time.Time
}

// TemplateStats aggregates usage events for one template since the given time
func (r *UsageEventRepository) TemplateStats(ctx context.Context, templateID uuid.UUID, since time.Time) (*domain.TemplateUsageStatsDTO, error) {
	var row templateStatsRow
	err := r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select(`template_id,
			COUNT(*) AS total_uses,
			COUNT(*) FILTER (WHERE outcome = ?) AS success_count,
			COUNT(*) FILTER (WHERE outcome = ?) AS failure_count,
			COUNT(DISTINCT user_id) AS unique_users,
			MAX(created_at) AS last_used_at`,
			domain.UsageOutcomeSuccess, domain.UsageOutcomeFailure).
		Where("template_id = ? AND created_at >= ?", templateID, since).
		Group("template_id").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &domain.TemplateUsageStatsDTO{
		TemplateID:   templateID,
		TotalUses:    row.TotalUses,
		SuccessCount: row.SuccessCount,
		FailureCount: row.FailureCount,
		UniqueUsers:  row.UniqueUsers,
	}
	if row.LastUsedAt != nil {
		formatted := row.LastUsedAt.UTC().Format(time.RFC3339)
		stats.LastUsedAt = &formatted
	}
	return stats, nil
}

// userStatsRow is the scan target for aggregated per-user usage
type userStatsRow struct {
	TotalUses       int64
	SuccessCount    int64
	FailureCount    int64
	UniqueTemplates int64
	LastUsedAt      *time.Time
}

// UserStats aggregates usage events for one user since the given time
func (r *UsageEventRepository) UserStats(ctx context.Context, userID string, since time.Time) (*domain.UserUsageStatsDTO, error) {
	var row userStatsRow
	err := r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select(`COUNT(*) AS total_uses,
			COUNT(*) FILTER (WHERE outcome = ?) AS success_count,
			COUNT(*) FILTER (WHERE outcome = ?) AS failure_count,
			COUNT(DISTINCT template_id) AS unique_templates,
			MAX(created_at) AS last_used_at`,
			domain.UsageOutcomeSuccess, domain.UsageOutcomeFailure).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &domain.UserUsageStatsDTO{
		UserID:          userID,
		TotalUses:       row.TotalUses,
		SuccessCount:    row.SuccessCount,
		FailureCount:    row.FailureCount,
		UniqueTemplates: row.UniqueTemplates,
	}
	if row.LastUsedAt != nil {
		formatted := row.LastUsedAt.UTC().Format(time.RFC3339)
		stats.LastUsedAt = &formatted
	}

	// most used template in the window, if any
	var top struct {
		TemplateID uuid.UUID
	}
	err = r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select("template_id").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("template_id").
		Order("COUNT(*) DESC").
		Limit(1).
		Scan(&top).Error
	if err == nil {
		stats.TopTemplateID = top.TemplateID
	}

	return stats, err
}

// TopTemplates returns per-template aggregates over the window, ordered by use
func (r *UsageEventRepository) TopTemplates(ctx context.Context, since time.Time, limit int) ([]domain.TemplateUsageStatsDTO, error) {
	var rows []templateStatsRow
	err := r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select(`template_id,
			COUNT(*) AS total_uses,
			COUNT(*) FILTER (WHERE outcome = ?) AS success_count,
			COUNT(*) FILTER (WHERE outcome = ?) AS failure_count,
			COUNT(DISTINCT user_id) AS unique_users,
			MAX(created_at) AS last_used_at`,
			domain.UsageOutcomeSuccess, domain.UsageOutcomeFailure).
		Where("created_at >= ?", since).
		Group("template_id").
		Order("total_uses DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]domain.TemplateUsageStatsDTO, len(rows))
	for i, row := range rows {
		stats[i] = domain.TemplateUsageStatsDTO{
			TemplateID:   row.TemplateID,
			TotalUses:    row.TotalUses,
			SuccessCount: row.SuccessCount,
			FailureCount: row.FailureCount,
			UniqueUsers:  row.UniqueUsers,
		}
		if row.LastUsedAt != nil {
			formatted := row.LastUsedAt.UTC().Format(time.RFC3339)
			stats[i].LastUsedAt = &formatted
		}
	}
	return stats, nil
}

// Totals returns company-wide counters over the window
func (r *UsageEventRepository) Totals(ctx context.Context, since time.Time) (total, success, failure, activeUsers int64, err error) {
	var row struct {
		TotalEvents  int64
		SuccessCount int64
		FailureCount int64
		ActiveUsers  int64
	}
	err = r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select(`COUNT(*) AS total_events,
			COUNT(*) FILTER (WHERE outcome = ?) AS success_count,
			COUNT(*) FILTER (WHERE outcome = ?) AS failure_count,
			COUNT(DISTINCT user_id) AS active_users`,
			domain.UsageOutcomeSuccess, domain.UsageOutcomeFailure).
		Where("created_at >= ?", since).
		Scan(&row).Error
	return row.TotalEvents, row.SuccessCount, row.FailureCount, row.ActiveUsers, err
}

// EventsPerDay buckets events by calendar day over the window
func (r *UsageEventRepository) EventsPerDay(ctx context.Context, since time.Time) ([]domain.DailyUsageDTO, error) {
	var rows []struct {
		Day   time.Time
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&domain.UsageEvent{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	daily := make([]domain.DailyUsageDTO, len(rows))
	for i, row := range rows {
		daily[i] = domain.DailyUsageDTO{
			Date:  row.Day.Format("2006-01-02"),
			Count: row.Count,
		}
	}
	return daily, nil
}
