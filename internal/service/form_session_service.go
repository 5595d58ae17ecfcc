package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/spot-form-api/internal/form"
	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/observability"
)

const hookTimeout = 5 * time.Second

// ErrSessionNotFound indicates the user has no live form controller.
var ErrSessionNotFound = errors.New("form session not found")

// FormSessionService keeps one form controller per signed-in user.
type FormSessionService interface {
	Controller(identity models.Identity) (*form.Controller, error)
	Lookup(userID string) (*form.Controller, bool)
	Discard(userID string) bool
	Logout(ctx context.Context, identity models.Identity) error
	Active() int
	Shutdown()
}

// FormSessionConfig wires the collaborators shared by every controller.
type FormSessionConfig struct {
	Places          form.PlacesClient
	Validator       *form.Validator
	NotificationTTL time.Duration
	ReloadDelay     time.Duration
	Lists           SubmissionListService
	Attempts        AttemptService
	Events          EventPublisher
}

// userSession exposes the latest identity seen for a user. The bearer token
// is refreshed on every request so long-lived controllers never submit with
// an expired credential.
type userSession struct {
	mu       sync.RWMutex
	identity models.Identity
}

func (s *userSession) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity.Present()
}

func (s *userSession) refresh(identity models.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
}

type formSessionEntry struct {
	session    *userSession
	controller *form.Controller
}

type formSessionService struct {
	mu       sync.Mutex
	sessions map[string]*formSessionEntry
	cfg      FormSessionConfig
	logger   zerolog.Logger
}

// NewFormSessionService constructs the per-user controller registry.
func NewFormSessionService(cfg FormSessionConfig, logger zerolog.Logger) FormSessionService {
	if cfg.Validator == nil {
		cfg.Validator = form.NewValidator()
	}
	return &formSessionService{
		sessions: make(map[string]*formSessionEntry),
		cfg:      cfg,
		logger:   logger.With().Str("component", "form_session_service").Logger(),
	}
}

func (s *formSessionService) Controller(identity models.Identity) (*form.Controller, error) {
	if !identity.Present() {
		return nil, form.ErrNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.sessions[identity.ID]; ok {
		entry.session.refresh(identity)
		return entry.controller, nil
	}

	session := &userSession{identity: identity}
	controller, err := form.NewController(form.Options{
		Session:         session,
		Places:          s.cfg.Places,
		Validator:       s.cfg.Validator,
		Logger:          s.logger,
		NotificationTTL: s.cfg.NotificationTTL,
		ReloadDelay:     s.cfg.ReloadDelay,
		Hooks: form.Hooks{
			Reload:    s.reload,
			Attempt:   s.recordAttempt,
			Submitted: s.submitted,
		},
	})
	if err != nil {
		return nil, err
	}

	s.sessions[identity.ID] = &formSessionEntry{session: session, controller: controller}
	observability.FormSessions().Inc()
	s.logger.Info().
		Str("user_id", identity.ID).
		Str("email", maskEmailAddress(identity.Email)).
		Msg("form session opened")
	return controller, nil
}

func (s *formSessionService) Lookup(userID string) (*form.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return entry.controller, true
}

func (s *formSessionService) Discard(userID string) bool {
	s.mu.Lock()
	entry, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	entry.controller.Close()
	observability.FormSessions().Dec()
	s.logger.Info().Str("user_id", userID).Msg("form session discarded")
	return true
}

func (s *formSessionService) Logout(ctx context.Context, identity models.Identity) error {
	if strings.TrimSpace(identity.ID) == "" {
		return form.ErrNoIdentity
	}
	s.Discard(identity.ID)
	if s.cfg.Lists != nil {
		return s.cfg.Lists.Invalidate(ctx, identity.ID)
	}
	return nil
}

func (s *formSessionService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *formSessionService) Shutdown() {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]*formSessionEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		entry.controller.Close()
		observability.FormSessions().Dec()
	}
}

// reload runs when the post-submit delay elapses; the next list read goes upstream.
func (s *formSessionService) reload(identity models.Identity) {
	if s.cfg.Lists == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := s.cfg.Lists.Invalidate(ctx, identity.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to refresh submission list")
	}
}

func (s *formSessionService) recordAttempt(ctx context.Context, attempt models.SubmissionAttempt) {
	if s.cfg.Attempts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()
	if err := s.cfg.Attempts.Record(ctx, attempt); err != nil {
		s.logger.Warn().Err(err).Str("user_id", attempt.UserID).Msg("failed to record submission attempt")
	}
}

func (s *formSessionService) submitted(ctx context.Context, identity models.Identity, result form.SubmitResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()

	if s.cfg.Lists != nil {
		if err := s.cfg.Lists.Invalidate(ctx, identity.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to invalidate submission list")
		}
	}
	if s.cfg.Events != nil {
		if err := s.cfg.Events.PublishSubmitted(ctx, identity, result); err != nil {
			s.logger.Warn().Err(err).Str("user_id", identity.ID).Msg("failed to publish submission event")
		}
	}
}
