package dto

import (
	"time"

	"github.com/noah-isme/spot-form-api/internal/models"
)

// SubmissionSummary is one row of the submission list modal.
type SubmissionSummary struct {
	ID        string             `json:"id"`
	PlaceName string             `json:"place_name"`
	Province  string             `json:"province"`
	Address   string             `json:"address"`
	ImageLink string             `json:"image_link"`
	Status    models.PlaceStatus `json:"status"`
	Editable  bool               `json:"editable"`
	CreatedAt string             `json:"created_at,omitempty"`
}

// SubmissionCounts backs the header badge and the status filters.
type SubmissionCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// SubmissionListResponse is cached per user.
type SubmissionListResponse struct {
	Items  []SubmissionSummary `json:"items"`
	Counts SubmissionCounts    `json:"counts"`
}

// SubmissionReview is the review dialog view of one submission. Embed markup
// is sanitised before it leaves the service.
type SubmissionReview struct {
	ID                 string             `json:"id"`
	SubmitterName      string             `json:"name"`
	PlaceName          string             `json:"place_name"`
	Province           string             `json:"province"`
	Address            string             `json:"address"`
	EmailAddress       string             `json:"email_address"`
	ContactNo          string             `json:"contact_no"`
	EntranceFee        string             `json:"entrance_fee"`
	RoomOrCottagePrice string             `json:"room_or_cottage_price"`
	Activities         string             `json:"activities"`
	Services           string             `json:"services"`
	History            string             `json:"history"`
	Description        string             `json:"description"`
	VirtualIframe      string             `json:"virtual_iframe"`
	MapIframe          string             `json:"map_iframe"`
	ImageLink          string             `json:"image_link"`
	Status             models.PlaceStatus `json:"status"`
	Editable           bool               `json:"editable"`
}

// AttemptResponse serialises a submit audit entry.
type AttemptResponse struct {
	ID         uint      `json:"id"`
	PlaceID    string    `json:"place_id,omitempty"`
	PlaceName  string    `json:"place_name"`
	Mode       string    `json:"mode"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttemptQuery describes query string filters for the audit log.
type AttemptQuery struct {
	Outcome string `query:"outcome" validate:"omitempty,oneof=success invalid rejected failed"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// NewSubmissionSummary converts a place record into a list row.
func NewSubmissionSummary(place models.Place) SubmissionSummary {
	return SubmissionSummary{
		ID:        place.ID.String(),
		PlaceName: place.PlaceName,
		Province:  place.Province,
		Address:   place.Address,
		ImageLink: place.ImageLink,
		Status:    place.Status,
		Editable:  place.Editable(),
		CreatedAt: place.CreatedAt,
	}
}

// NewSubmissionListResponse builds the list and its status counts.
func NewSubmissionListResponse(places []models.Place) SubmissionListResponse {
	response := SubmissionListResponse{Items: make([]SubmissionSummary, 0, len(places))}
	for _, place := range places {
		response.Items = append(response.Items, NewSubmissionSummary(place))
		response.Counts.Total++
		switch place.Status {
		case models.PlaceStatusApproved:
			response.Counts.Approved++
		case models.PlaceStatusRejected:
			response.Counts.Rejected++
		default:
			response.Counts.Pending++
		}
	}
	return response
}

// NewAttemptResponse converts a model into a DTO.
func NewAttemptResponse(model models.SubmissionAttempt) AttemptResponse {
	return AttemptResponse{
		ID:         model.ID,
		PlaceID:    model.PlaceID,
		PlaceName:  model.PlaceName,
		Mode:       model.Mode,
		Outcome:    model.Outcome,
		StatusCode: model.StatusCode,
		Message:    model.Message,
		CreatedAt:  model.CreatedAt,
	}
}

// NewAttemptResponseSlice converts a slice of models.
func NewAttemptResponseSlice(items []models.SubmissionAttempt) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAttemptResponse(item))
	}
	return responses
}
