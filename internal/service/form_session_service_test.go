package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/form"
	"github.com/noah-isme/spot-form-api/internal/models"
)

type recordingPlaces struct {
	mu     sync.Mutex
	tokens []string
}

func (p *recordingPlaces) Create(_ context.Context, token string, draft models.SubmissionDraft) (models.Place, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	return models.Place{ID: "100", PlaceName: draft.PlaceName, Status: models.PlaceStatusPending}, nil
}

func (p *recordingPlaces) Update(_ context.Context, token, id string, draft models.SubmissionDraft) (models.Place, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	return models.Place{ID: models.PlaceID(id), PlaceName: draft.PlaceName, Status: models.PlaceStatusPending}, nil
}

type recordingLists struct {
	SubmissionListService
	mu          sync.Mutex
	invalidated []string
}

func (l *recordingLists) Invalidate(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidated = append(l.invalidated, userID)
	return nil
}

func (l *recordingLists) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.invalidated)
}

type recordingAttempts struct {
	mu    sync.Mutex
	items []models.SubmissionAttempt
}

func (a *recordingAttempts) Record(_ context.Context, attempt models.SubmissionAttempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, attempt)
	return nil
}

func (a *recordingAttempts) ListRecent(context.Context, string, dto.AttemptQuery) ([]dto.AttemptResponse, error) {
	return nil, nil
}

type recordingEvents struct {
	mu      sync.Mutex
	results []form.SubmitResult
}

func (e *recordingEvents) PublishSubmitted(_ context.Context, _ models.Identity, result form.SubmitResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, result)
	return nil
}

func newTestSessions(t *testing.T) (FormSessionService, *recordingPlaces, *recordingLists, *recordingAttempts, *recordingEvents) {
	t.Helper()
	places := &recordingPlaces{}
	lists := &recordingLists{}
	attempts := &recordingAttempts{}
	events := &recordingEvents{}

	svc := NewFormSessionService(FormSessionConfig{
		Places:          places,
		NotificationTTL: time.Minute,
		ReloadDelay:     10 * time.Millisecond,
		Lists:           lists,
		Attempts:        attempts,
		Events:          events,
	}, zerolog.Nop())
	t.Cleanup(svc.Shutdown)
	return svc, places, lists, attempts, events
}

func TestFormSessionServiceReusesControllerPerUser(t *testing.T) {
	svc, _, _, _, _ := newTestSessions(t)

	first, err := svc.Controller(listIdentity)
	require.NoError(t, err)
	second, err := svc.Controller(listIdentity)
	require.NoError(t, err)
	require.Same(t, first, second)

	other, err := svc.Controller(models.Identity{ID: "8", Email: "juan@example.com"})
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, 2, svc.Active())
	require.Equal(t, "juan@example.com", other.State().Draft.SubmitterName)

	_, err = svc.Controller(models.Identity{})
	require.ErrorIs(t, err, form.ErrNoIdentity)
}

func TestFormSessionServiceDiscard(t *testing.T) {
	svc, _, _, _, _ := newTestSessions(t)

	controller, err := svc.Controller(listIdentity)
	require.NoError(t, err)

	require.True(t, svc.Discard("7"))
	require.False(t, svc.Discard("7"))
	_, ok := svc.Lookup("7")
	require.False(t, ok)
	require.ErrorIs(t, controller.SetField(models.FieldPlaceName, "x"), form.ErrControllerClosed)
}

func TestFormSessionServiceLogoutClearsState(t *testing.T) {
	svc, _, lists, _, _ := newTestSessions(t)

	_, err := svc.Controller(listIdentity)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), listIdentity))
	require.Zero(t, svc.Active())
	require.Equal(t, []string{"7"}, lists.invalidated)

	require.ErrorIs(t, svc.Logout(context.Background(), models.Identity{}), form.ErrNoIdentity)
}

func TestFormSessionServiceSubmitUsesFreshTokenAndFiresHooks(t *testing.T) {
	svc, places, lists, attempts, events := newTestSessions(t)

	controller, err := svc.Controller(listIdentity)
	require.NoError(t, err)

	refreshed := listIdentity
	refreshed.Token = "token-refreshed"
	_, err = svc.Controller(refreshed)
	require.NoError(t, err)

	for key, value := range map[string]string{
		models.FieldPlaceName:    "Tinuy-an Falls",
		models.FieldAddress:      "Bislig City",
		models.FieldEmailAddress: "jane@example.com",
		models.FieldContactNo:    "09123456789",
		models.FieldDescription:  "Waterfall.",
	} {
		require.NoError(t, controller.SetField(key, value))
	}
	require.NoError(t, controller.SelectImage(&models.ImageFile{Name: "falls.jpg", Data: []byte("not really an image")}))
	controller.Next()
	controller.Next()

	result, err := controller.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.PlaceID("100"), result.Place.ID)
	require.Equal(t, []string{"token-refreshed"}, places.tokens)

	require.Len(t, attempts.items, 1)
	require.Equal(t, models.AttemptOutcomeSuccess, attempts.items[0].Outcome)
	require.Equal(t, "7", attempts.items[0].UserID)
	require.Len(t, events.results, 1)

	// submit invalidation plus the delayed reload
	require.Eventually(t, func() bool { return lists.count() == 2 }, time.Second, 5*time.Millisecond)
}
