package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/observability"
)

// List modes select how a user's submissions are looked up upstream.
const (
	ListModeUser = "user"
	ListModeName = "name"
)

var (
	// ErrSubmissionNotFound indicates the user has no submission with that id.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrListUnavailable indicates the places backend could not list submissions.
	ErrListUnavailable = errors.New("submission list unavailable")
)

// PlacesLister reads submissions from the places backend.
type PlacesLister interface {
	ListByUser(ctx context.Context, token, userID string) ([]models.Place, error)
	ListByName(ctx context.Context, token, name string) ([]models.Place, error)
}

// SubmissionListService backs the submission list modal and review dialog.
type SubmissionListService interface {
	List(ctx context.Context, identity models.Identity) (dto.SubmissionListResponse, error)
	Get(ctx context.Context, identity models.Identity, id string) (models.Place, error)
	Review(ctx context.Context, identity models.Identity, id string) (dto.SubmissionReview, error)
	Invalidate(ctx context.Context, userID string) error
}

type submissionListService struct {
	places   PlacesLister
	mode     string
	cache    *redis.Client
	cacheTTL time.Duration
	policy   *bluemonday.Policy
	logger   zerolog.Logger
}

// NewSubmissionListService builds the list service. A nil cache disables caching.
func NewSubmissionListService(places PlacesLister, mode string, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) SubmissionListService {
	if mode != ListModeName {
		mode = ListModeUser
	}
	return &submissionListService{
		places:   places,
		mode:     mode,
		cache:    cache,
		cacheTTL: ttl,
		policy:   newEmbedPolicy(),
		logger:   logger.With().Str("component", "submission_list_service").Logger(),
	}
}

// newEmbedPolicy keeps https iframes and drops every other element.
func newEmbedPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("src").Matching(regexp.MustCompile(`^https://`)).OnElements("iframe")
	policy.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]+%?$`)).OnElements("iframe")
	policy.AllowAttrs("frameborder", "allowfullscreen", "loading", "referrerpolicy", "title").OnElements("iframe")
	policy.AllowURLSchemes("https")
	policy.RequireParseableURLs(true)
	return policy
}

func cacheKey(userID string) string {
	return "submissions:user:" + userID
}

func (s *submissionListService) List(ctx context.Context, identity models.Identity) (dto.SubmissionListResponse, error) {
	places, err := s.load(ctx, identity)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}
	return dto.NewSubmissionListResponse(places), nil
}

func (s *submissionListService) Get(ctx context.Context, identity models.Identity, id string) (models.Place, error) {
	id = strings.TrimSpace(id)
	places, err := s.load(ctx, identity)
	if err != nil {
		return models.Place{}, err
	}
	for _, place := range places {
		if place.ID.String() == id {
			return place, nil
		}
	}
	return models.Place{}, ErrSubmissionNotFound
}

func (s *submissionListService) Review(ctx context.Context, identity models.Identity, id string) (dto.SubmissionReview, error) {
	place, err := s.Get(ctx, identity, id)
	if err != nil {
		return dto.SubmissionReview{}, err
	}

	return dto.SubmissionReview{
		ID:                 place.ID.String(),
		SubmitterName:      place.Name,
		PlaceName:          place.PlaceName,
		Province:           place.Province,
		Address:            place.Address,
		EmailAddress:       place.EmailAddress,
		ContactNo:          place.ContactNo,
		EntranceFee:        place.EntranceFee,
		RoomOrCottagePrice: place.RoomOrCottagePrice,
		Activities:         place.Activities,
		Services:           place.Services,
		History:            place.History,
		Description:        place.Description,
		VirtualIframe:      strings.TrimSpace(s.policy.Sanitize(place.VirtualIframe)),
		MapIframe:          strings.TrimSpace(s.policy.Sanitize(place.MapIframe)),
		ImageLink:          place.ImageLink,
		Status:             place.Status,
		Editable:           place.Editable(),
	}, nil
}

func (s *submissionListService) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := s.cache.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate submissions cache: %w", err)
	}
	return nil
}

func (s *submissionListService) load(ctx context.Context, identity models.Identity) ([]models.Place, error) {
	key := cacheKey(identity.ID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var places []models.Place
			if unmarshalErr := json.Unmarshal(cached, &places); unmarshalErr == nil {
				observability.SubmissionsCache().WithLabelValues("hit").Inc()
				return places, nil
			}
			observability.SubmissionsCache().WithLabelValues("corrupt").Inc()
		case errors.Is(err, redis.Nil):
			observability.SubmissionsCache().WithLabelValues("miss").Inc()
		default:
			observability.SubmissionsCache().WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Msg("failed to read submissions cache")
		}
	}

	var (
		places []models.Place
		err    error
	)
	if s.mode == ListModeName {
		places, err = s.places.ListByName(ctx, identity.Token, identity.DisplayName())
	} else {
		places, err = s.places.ListByUser(ctx, identity.Token, identity.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListUnavailable, err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(places); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store submissions cache")
			}
		}
	}

	return places, nil
}
