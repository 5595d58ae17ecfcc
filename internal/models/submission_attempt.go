package models

import "time"

// Submission modes recorded for attempts.
const (
	SubmissionModeCreate = "create"
	SubmissionModeUpdate = "update"
)

// Attempt outcomes.
const (
	AttemptOutcomeSuccess  = "success"
	AttemptOutcomeInvalid  = "invalid"
	AttemptOutcomeRejected = "rejected"
	AttemptOutcomeFailed   = "failed"
)

// SubmissionAttempt is an audit entry written for every submit action.
type SubmissionAttempt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:64;index;not null" json:"user_id"`
	PlaceID    string    `gorm:"size:64" json:"place_id"`
	PlaceName  string    `gorm:"size:255" json:"place_name"`
	Mode       string    `gorm:"size:16;not null" json:"mode"`
	Outcome    string    `gorm:"size:32;not null" json:"outcome"`
	StatusCode int       `json:"status_code"`
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
