package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/spot-form-api/internal/models"
)

const defaultAttemptLimit = 20

// AttemptFilter narrows attempt listings.
type AttemptFilter struct {
	UserID  string
	Outcome string
	Limit   int
}

// AttemptRepository persists the submit audit log.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.SubmissionAttempt) error
	ListRecent(ctx context.Context, filter AttemptFilter) ([]models.SubmissionAttempt, error)
	CountByOutcome(ctx context.Context, userID string) (map[string]int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository constructs a repository backed by GORM.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.SubmissionAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) ListRecent(ctx context.Context, filter AttemptFilter) ([]models.SubmissionAttempt, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultAttemptLimit
	}

	query := r.db.WithContext(ctx).Model(&models.SubmissionAttempt{})
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if outcome := strings.TrimSpace(filter.Outcome); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}

	var attempts []models.SubmissionAttempt
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) CountByOutcome(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SubmissionAttempt{}).
		Select("outcome, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}
