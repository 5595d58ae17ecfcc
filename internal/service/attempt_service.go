package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/repository"
)

// AttemptService records and lists submit attempts.
type AttemptService interface {
	Record(ctx context.Context, attempt models.SubmissionAttempt) error
	ListRecent(ctx context.Context, userID string, query dto.AttemptQuery) ([]dto.AttemptResponse, error)
}

type attemptService struct {
	repo      repository.AttemptRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAttemptService constructs the audit log service.
func NewAttemptService(repo repository.AttemptRepository, validate *validator.Validate, logger zerolog.Logger) AttemptService {
	return &attemptService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "attempt_service").Logger(),
	}
}

func (s *attemptService) Record(ctx context.Context, attempt models.SubmissionAttempt) error {
	if strings.TrimSpace(attempt.UserID) == "" {
		return errors.New("attempt user id is required")
	}
	if err := s.repo.Create(ctx, &attempt); err != nil {
		return err
	}
	s.logger.Debug().
		Str("user_id", attempt.UserID).
		Str("mode", attempt.Mode).
		Str("outcome", attempt.Outcome).
		Msg("submission attempt recorded")
	return nil
}

func (s *attemptService) ListRecent(ctx context.Context, userID string, query dto.AttemptQuery) ([]dto.AttemptResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	items, err := s.repo.ListRecent(ctx, repository.AttemptFilter{
		UserID:  userID,
		Outcome: query.Outcome,
		Limit:   query.Limit,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewAttemptResponseSlice(items), nil
}
