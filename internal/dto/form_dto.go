package dto

import (
	"time"

	"github.com/noah-isme/spot-form-api/internal/form"
	"github.com/noah-isme/spot-form-api/internal/models"
)

// FieldUpdateRequest carries a single field edit.
type FieldUpdateRequest struct {
	Value *string `json:"value" validate:"required"`
}

// FormSubmitResponse is returned after a successful submit.
type FormSubmitResponse struct {
	Mode         string            `json:"mode"`
	Place        models.Place      `json:"place"`
	Notification form.Notification `json:"notification"`
	State        form.State        `json:"state"`
}

// SubmittedEvent is published once the places backend accepted a submission.
type SubmittedEvent struct {
	EventID   string             `json:"event_id"`
	UserID    string             `json:"user_id"`
	Mode      string             `json:"mode"`
	PlaceID   string             `json:"place_id"`
	PlaceName string             `json:"place_name"`
	Status    models.PlaceStatus `json:"status"`
	SentAt    time.Time          `json:"sent_at"`
}
