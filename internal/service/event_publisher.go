package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/spot-form-api/internal/dto"
	"github.com/noah-isme/spot-form-api/internal/form"
	"github.com/noah-isme/spot-form-api/internal/models"
)

// DefaultSubmittedSubject is used when no subject is configured.
const DefaultSubmittedSubject = "places.submitted"

// MessagePublisher is satisfied by *nats.Conn.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher announces accepted submissions to other services.
type EventPublisher interface {
	PublishSubmitted(ctx context.Context, identity models.Identity, result form.SubmitResult) error
}

type eventPublisher struct {
	conn    MessagePublisher
	subject string
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewEventPublisher returns a publisher. A nil connection turns publishing into a no-op.
func NewEventPublisher(conn MessagePublisher, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = DefaultSubmittedSubject
	}
	return &eventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/spot-form-api/internal/service/events"),
		now:     time.Now,
	}
}

func (p *eventPublisher) PublishSubmitted(ctx context.Context, identity models.Identity, result form.SubmitResult) error {
	if p.conn == nil {
		return nil
	}

	_, span := p.tracer.Start(ctx, "events.publish_submitted", trace.WithAttributes(
		attribute.String("messaging.destination", p.subject),
		attribute.String("form.mode", result.Mode),
	))
	defer span.End()

	status := result.Place.Status
	if status == "" {
		status = models.PlaceStatusPending
	}
	event := dto.SubmittedEvent{
		EventID:   uuid.NewString(),
		UserID:    identity.ID,
		Mode:      result.Mode,
		PlaceID:   result.Place.ID.String(),
		PlaceName: result.Place.PlaceName,
		Status:    status,
		SentAt:    p.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		span.RecordError(err)
		return err
	}

	p.logger.Debug().Str("event_id", event.EventID).Str("place_id", event.PlaceID).Msg("submission event published")
	return nil
}
