package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/spot-form-api/internal/models"
	"github.com/noah-isme/spot-form-api/internal/observability"
	"github.com/noah-isme/spot-form-api/internal/places"
)

// Notification texts.
const (
	MsgCreated         = "Spot submitted for review!"
	MsgUpdated         = "Spot updated successfully!"
	MsgRejected        = "Failed to submit spot. Please try again."
	MsgTransportFailed = "An error occurred. Please try again later."
	MsgFillRequired    = "Please fill in all required fields."
	MsgEditing         = "Editing submission. Make your changes and resubmit."
)

const (
	defaultNotificationTTL = 5 * time.Second
	defaultReloadDelay     = 3 * time.Second
	subscriberBuffer       = 16
)

var (
	// ErrNoIdentity indicates the session carries no signed-in user.
	ErrNoIdentity = errors.New("session identity missing")
	// ErrSubmissionInFlight indicates a submit is already pending.
	ErrSubmissionInFlight = errors.New("submission already in progress")
	// ErrNotOnFinalSection indicates submit was triggered before the media section.
	ErrNotOnFinalSection = errors.New("submit is only available on the media section")
	// ErrValidationFailed indicates the draft did not pass validation.
	ErrValidationFailed = errors.New("submission draft is invalid")
	// ErrSubmissionRejected indicates the places backend answered with a non-2xx status.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrSubmissionFailed indicates the request never completed.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrNotEditable indicates an approved submission was opened for editing.
	ErrNotEditable = errors.New("approved submissions cannot be edited")
	// ErrControllerClosed indicates the controller was discarded.
	ErrControllerClosed = errors.New("form controller closed")
)

// Session exposes the signed-in user to the controller.
type Session interface {
	Identity() (models.Identity, bool)
}

// PlacesClient is the part of the places backend the controller submits to.
type PlacesClient interface {
	Create(ctx context.Context, token string, draft models.SubmissionDraft) (models.Place, error)
	Update(ctx context.Context, token, id string, draft models.SubmissionDraft) (models.Place, error)
}

// SubmitResult describes a finished submit action.
type SubmitResult struct {
	Mode         string       `json:"mode"`
	Place        models.Place `json:"place"`
	Notification Notification `json:"notification"`
	Errors       ErrorSet     `json:"errors,omitempty"`
	StatusCode   int          `json:"-"`
}

// Hooks are optional callbacks fired by the controller. They run outside the
// controller lock.
type Hooks struct {
	// Reload fires once the post-submit reload delay elapses.
	Reload func(identity models.Identity)
	// Attempt receives an audit entry for every submit action.
	Attempt func(ctx context.Context, attempt models.SubmissionAttempt)
	// Submitted fires after the backend accepted a create or update.
	Submitted func(ctx context.Context, identity models.Identity, result SubmitResult)
}

// Options configures a Controller.
type Options struct {
	Session         Session
	Places          PlacesClient
	Validator       *Validator
	Logger          zerolog.Logger
	NotificationTTL time.Duration
	ReloadDelay     time.Duration
	Hooks           Hooks
}

// State is a point-in-time view of the controller.
type State struct {
	Draft        models.SubmissionDraft `json:"draft"`
	Image        *ImageInfo             `json:"image,omitempty"`
	ImagePreview string                 `json:"image_preview,omitempty"`
	Section      Section                `json:"section"`
	Progress     int                    `json:"progress"`
	Errors       ErrorSet               `json:"errors"`
	Editing      bool                   `json:"editing"`
	EditID       string                 `json:"edit_id,omitempty"`
	Submitting   bool                   `json:"submitting"`
	Notification Notification           `json:"notification"`
}

// Event is pushed to subscribers whenever the controller changes.
type Event struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
}

// Event types.
const (
	EventState  = "state"
	EventReload = "reload"
)

// Controller owns one user's submission draft, wizard position, validation
// errors, notification and edit mode.
type Controller struct {
	mu         sync.Mutex
	session    Session
	places     PlacesClient
	validator  *Validator
	logger     zerolog.Logger
	tracer     trace.Tracer
	hooks      Hooks
	draft      models.SubmissionDraft
	section    Section
	errors     ErrorSet
	editing    bool
	editID     string
	submitting bool
	preview    string
	previewGen uint64
	closed     bool

	notes       *notifier
	reload      timerSlot
	reloadDelay time.Duration

	subsMu  sync.Mutex
	subs    map[uint64]chan Event
	nextSub uint64
}

// NewController builds a controller with an empty draft owned by the session user.
func NewController(opts Options) (*Controller, error) {
	if opts.Session == nil {
		return nil, ErrNoIdentity
	}
	identity, ok := opts.Session.Identity()
	if !ok {
		return nil, ErrNoIdentity
	}
	if opts.Places == nil {
		return nil, fmt.Errorf("places client is required")
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaultNotificationTTL
	}
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = defaultReloadDelay
	}

	c := &Controller{
		session:     opts.Session,
		places:      opts.Places,
		validator:   opts.Validator,
		logger:      opts.Logger.With().Str("component", "form_controller").Str("user_id", identity.ID).Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/spot-form-api/internal/form"),
		hooks:       opts.Hooks,
		draft:       models.NewSubmissionDraft(identity.DisplayName()),
		section:     SectionBasic,
		errors:      ErrorSet{},
		reloadDelay: opts.ReloadDelay,
		subs:        map[uint64]chan Event{},
	}
	c.notes = newNotifier(opts.NotificationTTL, c.publish)
	return c, nil
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Draft:        c.draft.Clone(),
		Image:        imageInfo(c.draft.Image),
		ImagePreview: c.preview,
		Section:      c.section,
		Progress:     c.section.Progress(),
		Errors:       c.errors.Clone(),
		Editing:      c.editing,
		EditID:       c.editID,
		Submitting:   c.submitting,
		Notification: c.notes.snapshot(),
	}
}

// SetField writes value into the draft and clears any error recorded for that field.
func (c *Controller) SetField(key, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if err := c.draft.Set(key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	delete(c.errors, key)
	c.mu.Unlock()

	c.publish()
	return nil
}

// SelectImage stores the image and renders its preview in the background.
// A nil or empty image clears both the image and the preview.
func (c *Controller) SelectImage(image *models.ImageFile) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.previewGen++
	c.preview = ""
	generation := c.previewGen
	if image.Size() == 0 {
		c.draft.Image = nil
		c.mu.Unlock()
		c.publish()
		return nil
	}
	stored := &models.ImageFile{
		Name:        image.Name,
		ContentType: image.ContentType,
		Data:        append([]byte(nil), image.Data...),
	}
	c.draft.Image = stored
	delete(c.errors, models.FieldImage)
	c.mu.Unlock()

	c.publish()
	go c.renderPreview(generation, stored)
	return nil
}

func (c *Controller) renderPreview(generation uint64, image *models.ImageFile) {
	preview, err := PreviewDataURL(image)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", image.Name).Msg("image preview skipped")
		return
	}

	c.mu.Lock()
	if c.closed || c.previewGen != generation {
		c.mu.Unlock()
		return
	}
	c.preview = preview
	c.mu.Unlock()

	c.publish()
}

// Next advances the wizard.
func (c *Controller) Next() Section {
	return c.move(Section.Next)
}

// Prev moves the wizard back.
func (c *Controller) Prev() Section {
	return c.move(Section.Prev)
}

func (c *Controller) move(step func(Section) Section) Section {
	c.mu.Lock()
	c.section = step(c.section)
	section := c.section
	c.mu.Unlock()

	c.publish()
	return section
}

// DismissNotification hides the notification early. An empty id hides the current one.
func (c *Controller) DismissNotification(id string) bool {
	if !c.notes.dismiss(id) {
		return false
	}
	c.publish()
	return true
}

// Submit validates the draft and sends it upstream, creating a new submission
// or updating the one being edited. Only one submit can be in flight.
func (c *Controller) Submit(ctx context.Context) (SubmitResult, error) {
	ctx, span := c.tracer.Start(ctx, "form.submit")
	defer span.End()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SubmitResult{}, ErrControllerClosed
	}
	if c.submitting {
		c.mu.Unlock()
		span.SetStatus(codes.Error, "in flight")
		return SubmitResult{}, ErrSubmissionInFlight
	}
	if !c.section.CanSubmit() {
		c.mu.Unlock()
		span.SetStatus(codes.Error, "wrong section")
		return SubmitResult{}, ErrNotOnFinalSection
	}

	mode := models.SubmissionModeCreate
	if c.editing {
		mode = models.SubmissionModeUpdate
	}
	span.SetAttributes(attribute.String("form.mode", mode))

	identity, ok := c.session.Identity()
	if !ok {
		c.mu.Unlock()
		span.SetStatus(codes.Error, "identity missing")
		return SubmitResult{}, ErrNoIdentity
	}

	errs := c.validator.Validate(c.draft, c.editing)
	if !errs.Valid() {
		c.errors = errs
		note := c.notes.show(MsgFillRequired, NotificationError)
		placeName := c.draft.PlaceName
		editID := c.editID
		c.mu.Unlock()

		c.publish()
		span.SetStatus(codes.Error, "validation failed")
		observability.FormSubmissions().WithLabelValues(mode, models.AttemptOutcomeInvalid).Inc()
		c.recordAttempt(ctx, identity, models.SubmissionAttempt{
			PlaceID:   editID,
			PlaceName: placeName,
			Mode:      mode,
			Outcome:   models.AttemptOutcomeInvalid,
			Message:   MsgFillRequired,
		})
		return SubmitResult{Mode: mode, Notification: note, Errors: errs.Clone()}, ErrValidationFailed
	}

	c.errors = ErrorSet{}
	c.submitting = true
	draft := c.draft.Clone()
	editID := c.editID
	c.mu.Unlock()
	c.publish()

	// The request is never cancelled once sent.
	sendCtx := context.WithoutCancel(ctx)
	var (
		place models.Place
		err   error
	)
	if mode == models.SubmissionModeUpdate {
		place, err = c.places.Update(sendCtx, identity.Token, editID, draft)
	} else {
		place, err = c.places.Create(sendCtx, identity.Token, draft)
	}

	if err != nil {
		return c.finishFailure(ctx, span, identity, mode, editID, draft.PlaceName, err)
	}
	return c.finishSuccess(ctx, span, identity, mode, editID, draft, place)
}

func (c *Controller) finishFailure(ctx context.Context, span trace.Span, identity models.Identity, mode, editID, placeName string, err error) (SubmitResult, error) {
	message := MsgTransportFailed
	outcome := models.AttemptOutcomeFailed
	sentinel := ErrSubmissionFailed
	statusCode := 0

	var apiErr *places.APIError
	if errors.As(err, &apiErr) {
		outcome = models.AttemptOutcomeRejected
		sentinel = ErrSubmissionRejected
		statusCode = apiErr.StatusCode
		message = MsgRejected
		if apiErr.Message != "" {
			message = apiErr.Message
		}
	}

	c.mu.Lock()
	c.submitting = false
	closed := c.closed
	note := Notification{Message: message, Kind: NotificationError}
	if !closed {
		note = c.notes.show(message, NotificationError)
	}
	c.mu.Unlock()
	if !closed {
		c.publish()
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	observability.FormSubmissions().WithLabelValues(mode, outcome).Inc()
	c.logger.Warn().Err(err).Str("mode", mode).Int("status", statusCode).Msg("submission failed")
	c.recordAttempt(ctx, identity, models.SubmissionAttempt{
		PlaceID:    editID,
		PlaceName:  placeName,
		Mode:       mode,
		Outcome:    outcome,
		StatusCode: statusCode,
		Message:    message,
	})

	return SubmitResult{Mode: mode, Notification: note, StatusCode: statusCode}, fmt.Errorf("%w: %w", sentinel, err)
}

func (c *Controller) finishSuccess(ctx context.Context, span trace.Span, identity models.Identity, mode, editID string, sent models.SubmissionDraft, place models.Place) (SubmitResult, error) {
	message := MsgCreated
	if mode == models.SubmissionModeUpdate {
		message = MsgUpdated
	}

	c.mu.Lock()
	c.submitting = false
	c.editing = false
	c.editID = ""
	c.draft = models.NewSubmissionDraft(sent.SubmitterName)
	c.section = SectionBasic
	c.errors = ErrorSet{}
	c.previewGen++
	c.preview = ""
	// A controller discarded mid-flight arms no timers; the record was
	// still accepted, so the hooks below run regardless.
	closed := c.closed
	note := Notification{Message: message, Kind: NotificationSuccess}
	if !closed {
		note = c.notes.show(message, NotificationSuccess)
	}
	c.mu.Unlock()

	if !closed {
		c.reload.schedule(c.reloadDelay, func() {
			if c.hooks.Reload != nil {
				c.hooks.Reload(identity)
			}
			c.broadcast(Event{Type: EventReload})
		})
		c.publish()
	}

	if place.ID == "" {
		place.ID = models.PlaceID(editID)
	}
	span.SetStatus(codes.Ok, "submitted")
	span.SetAttributes(attribute.String("place.id", place.ID.String()))
	observability.FormSubmissions().WithLabelValues(mode, models.AttemptOutcomeSuccess).Inc()
	c.logger.Info().Str("mode", mode).Str("place_id", place.ID.String()).Msg("submission accepted")

	result := SubmitResult{Mode: mode, Place: place, Notification: note, StatusCode: 200}
	c.recordAttempt(ctx, identity, models.SubmissionAttempt{
		PlaceID:    place.ID.String(),
		PlaceName:  sent.PlaceName,
		Mode:       mode,
		Outcome:    models.AttemptOutcomeSuccess,
		StatusCode: 200,
		Message:    message,
	})
	if c.hooks.Submitted != nil {
		c.hooks.Submitted(ctx, identity, result)
	}
	return result, nil
}

func (c *Controller) recordAttempt(ctx context.Context, identity models.Identity, attempt models.SubmissionAttempt) {
	if c.hooks.Attempt == nil {
		return
	}
	attempt.UserID = identity.ID
	c.hooks.Attempt(ctx, attempt)
}

// BeginEdit seeds the draft from a stored submission and switches to edit mode.
func (c *Controller) BeginEdit(place models.Place) error {
	if !place.Editable() {
		return ErrNotEditable
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.draft = models.DraftFromPlace(place, c.draft.SubmitterName)
	c.editing = true
	c.editID = place.ID.String()
	c.section = SectionBasic
	c.errors = ErrorSet{}
	c.previewGen++
	c.preview = ""
	c.notes.show(MsgEditing, NotificationSuccess)
	c.mu.Unlock()

	c.publish()
	return nil
}

// CancelEdit leaves edit mode and resets the draft.
func (c *Controller) CancelEdit() bool {
	c.mu.Lock()
	if !c.editing {
		c.mu.Unlock()
		return false
	}
	c.editing = false
	c.editID = ""
	c.draft = models.NewSubmissionDraft(c.draft.SubmitterName)
	c.section = SectionBasic
	c.errors = ErrorSet{}
	c.previewGen++
	c.preview = ""
	c.mu.Unlock()

	c.publish()
	return true
}

// Subscribe returns a channel receiving state changes. Slow subscribers miss events.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			if existing, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(existing)
			}
		})
	}
}

// Close stops pending timers and disconnects subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.notes.stop()
	c.reload.stop()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.subsMu.Unlock()
}

func (c *Controller) publish() {
	state := c.State()
	c.broadcast(Event{Type: EventState, State: &state})
}

func (c *Controller) broadcast(event Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- event:
		default:
			c.logger.Debug().Str("event", event.Type).Msg("dropping form event for slow subscriber")
		}
	}
}
