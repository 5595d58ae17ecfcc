package models

import (
	"errors"
	"strings"
)

// Draft field keys. They double as the multipart keys the places backend reads.
const (
	FieldSubmitterName      = "name"
	FieldPlaceName          = "place_name"
	FieldProvince           = "province"
	FieldAddress            = "address"
	FieldEmailAddress       = "email_address"
	FieldContactNo          = "contact_no"
	FieldEntranceFee        = "entrance_fee"
	FieldRoomOrCottagePrice = "room_or_cottage_price"
	FieldActivities         = "activities"
	FieldServices           = "services"
	FieldHistory            = "history"
	FieldDescription        = "description"
	FieldVirtualIframe      = "virtual_iframe"
	FieldMapIframe          = "map_iframe"
	FieldImage              = "image_link"
	FieldStatus             = "status"
)

var (
	// ErrUnknownField indicates the field key is not part of the draft.
	ErrUnknownField = errors.New("unknown draft field")
	// ErrReadOnlyField indicates the field cannot be changed through text input.
	ErrReadOnlyField = errors.New("draft field is read-only")
)

// ImageFile is an image chosen for upload together with the draft.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f *ImageFile) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// SubmissionDraft is the in-progress tourist spot entry.
type SubmissionDraft struct {
	SubmitterName      string      `json:"name"`
	PlaceName          string      `json:"place_name"`
	Province           string      `json:"province"`
	Address            string      `json:"address"`
	EmailAddress       string      `json:"email_address"`
	ContactNo          string      `json:"contact_no"`
	EntranceFee        string      `json:"entrance_fee"`
	RoomOrCottagePrice string      `json:"room_or_cottage_price"`
	Activities         string      `json:"activities"`
	Services           string      `json:"services"`
	History            string      `json:"history"`
	Description        string      `json:"description"`
	VirtualIframe      string      `json:"virtual_iframe"`
	MapIframe          string      `json:"map_iframe"`
	Image              *ImageFile  `json:"-"`
	ExistingImage      string      `json:"existing_image,omitempty"`
	Status             PlaceStatus `json:"status"`
}

// FieldValue is a single text field of the draft in submission order.
type FieldValue struct {
	Key   string
	Value string
}

// NewSubmissionDraft returns an empty draft owned by submitter.
func NewSubmissionDraft(submitter string) SubmissionDraft {
	return SubmissionDraft{
		SubmitterName: submitter,
		Status:        PlaceStatusPending,
	}
}

// DraftFromPlace seeds a draft from a stored submission so it can be edited.
func DraftFromPlace(place Place, submitter string) SubmissionDraft {
	if strings.TrimSpace(submitter) == "" {
		submitter = place.Name
	}
	draft := NewSubmissionDraft(submitter)
	draft.PlaceName = place.PlaceName
	draft.Province = place.Province
	draft.Address = place.Address
	draft.EmailAddress = place.EmailAddress
	draft.ContactNo = place.ContactNo
	draft.EntranceFee = place.EntranceFee
	draft.RoomOrCottagePrice = place.RoomOrCottagePrice
	draft.Activities = place.Activities
	draft.Services = place.Services
	draft.History = place.History
	draft.Description = place.Description
	draft.VirtualIframe = place.VirtualIframe
	draft.MapIframe = place.MapIframe
	draft.ExistingImage = place.ImageLink
	return draft
}

// Set writes value into the text field identified by key.
func (d *SubmissionDraft) Set(key, value string) error {
	target, err := d.textField(key)
	if err != nil {
		return err
	}
	*target = value
	return nil
}

// Get returns the value of the text field identified by key.
func (d SubmissionDraft) Get(key string) (string, error) {
	switch key {
	case FieldSubmitterName:
		return d.SubmitterName, nil
	case FieldStatus:
		return string(d.Status), nil
	}
	target, err := d.textField(key)
	if err != nil {
		return "", err
	}
	return *target, nil
}

// TextFields returns every text field in the order they are sent upstream.
func (d SubmissionDraft) TextFields() []FieldValue {
	status := d.Status
	if status == "" {
		status = PlaceStatusPending
	}
	return []FieldValue{
		{FieldSubmitterName, d.SubmitterName},
		{FieldPlaceName, d.PlaceName},
		{FieldProvince, d.Province},
		{FieldAddress, d.Address},
		{FieldEmailAddress, d.EmailAddress},
		{FieldContactNo, d.ContactNo},
		{FieldEntranceFee, d.EntranceFee},
		{FieldRoomOrCottagePrice, d.RoomOrCottagePrice},
		{FieldActivities, d.Activities},
		{FieldServices, d.Services},
		{FieldHistory, d.History},
		{FieldDescription, d.Description},
		{FieldVirtualIframe, d.VirtualIframe},
		{FieldMapIframe, d.MapIframe},
		{FieldStatus, string(status)},
	}
}

// Clone returns a copy that does not share the image buffer.
func (d SubmissionDraft) Clone() SubmissionDraft {
	out := d
	if d.Image != nil {
		image := *d.Image
		image.Data = append([]byte(nil), d.Image.Data...)
		out.Image = &image
	}
	return out
}

func (d *SubmissionDraft) textField(key string) (*string, error) {
	switch key {
	case FieldPlaceName:
		return &d.PlaceName, nil
	case FieldProvince:
		return &d.Province, nil
	case FieldAddress:
		return &d.Address, nil
	case FieldEmailAddress:
		return &d.EmailAddress, nil
	case FieldContactNo:
		return &d.ContactNo, nil
	case FieldEntranceFee:
		return &d.EntranceFee, nil
	case FieldRoomOrCottagePrice:
		return &d.RoomOrCottagePrice, nil
	case FieldActivities:
		return &d.Activities, nil
	case FieldServices:
		return &d.Services, nil
	case FieldHistory:
		return &d.History, nil
	case FieldDescription:
		return &d.Description, nil
	case FieldVirtualIframe:
		return &d.VirtualIframe, nil
	case FieldMapIframe:
		return &d.MapIframe, nil
	case FieldSubmitterName, FieldStatus, FieldImage:
		return nil, ErrReadOnlyField
	default:
		return nil, ErrUnknownField
	}
}
