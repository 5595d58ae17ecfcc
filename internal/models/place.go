package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceStatus is the review state of a tourist spot submission.
type PlaceStatus string

const (
	// PlaceStatusPending marks a submission waiting for admin review.
	PlaceStatusPending PlaceStatus = "Pending"
	// PlaceStatusApproved marks a submission published by an admin.
	PlaceStatusApproved PlaceStatus = "Approved"
	// PlaceStatusRejected marks a submission declined by an admin.
	PlaceStatusRejected PlaceStatus = "Rejected"
)

// Provinces lists the regions a destination can be filed under.
var Provinces = []string{
	"Agusan del Norte",
	"Agusan del Sur",
	"Surigao del Norte",
	"Surigao del Sur",
	"Dinagat Islands",
}

// IsProvince reports whether value is one of the supported provinces.
func IsProvince(value string) bool {
	for _, province := range Provinces {
		if province == value {
			return true
		}
	}
	return false
}

// PlaceID identifies a submission on the places backend. The backend emits
// numeric ids, but string ids are accepted as well.
type PlaceID string

// UnmarshalJSON accepts JSON strings, numbers and null.
func (id *PlaceID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*id = PlaceID(strings.TrimSpace(value))
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("invalid place id %s: %w", string(trimmed), err)
	}
	*id = PlaceID(number.String())
	return nil
}

// String returns the raw identifier.
func (id PlaceID) String() string {
	return string(id)
}

// Place is a submission record as stored by the places backend.
type Place struct {
	ID                 PlaceID     `json:"id"`
	Name               string      `json:"name"`
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
	ImageLink          string      `json:"image_link"`
	Status             PlaceStatus `json:"status"`
	CreatedAt          string      `json:"created_at,omitempty"`
}

// looseString decodes JSON strings, numbers, booleans and null as text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*s = ""
	case trimmed[0] == '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = looseString(value)
	default:
		*s = looseString(trimmed)
	}
	return nil
}

// UnmarshalJSON accepts numeric or null values in the text columns. Fees and
// prices in particular are often stored as numbers upstream.
func (p *Place) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                 PlaceID     `json:"id"`
		Name               looseString `json:"name"`
		PlaceName          looseString `json:"place_name"`
		Province           looseString `json:"province"`
		Address            looseString `json:"address"`
		EmailAddress       looseString `json:"email_address"`
		ContactNo          looseString `json:"contact_no"`
		EntranceFee        looseString `json:"entrance_fee"`
		RoomOrCottagePrice looseString `json:"room_or_cottage_price"`
		Activities         looseString `json:"activities"`
		Services           looseString `json:"services"`
		History            looseString `json:"history"`
		Description        looseString `json:"description"`
		VirtualIframe      looseString `json:"virtual_iframe"`
		MapIframe          looseString `json:"map_iframe"`
		ImageLink          looseString `json:"image_link"`
		Status             looseString `json:"status"`
		CreatedAt          looseString `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Place{
		ID:                 raw.ID,
		Name:               string(raw.Name),
		PlaceName:          string(raw.PlaceName),
		Province:           string(raw.Province),
		Address:            string(raw.Address),
		EmailAddress:       string(raw.EmailAddress),
		ContactNo:          string(raw.ContactNo),
		EntranceFee:        string(raw.EntranceFee),
		RoomOrCottagePrice: string(raw.RoomOrCottagePrice),
		Activities:         string(raw.Activities),
		Services:           string(raw.Services),
		History:            string(raw.History),
		Description:        string(raw.Description),
		VirtualIframe:      string(raw.VirtualIframe),
		MapIframe:          string(raw.MapIframe),
		ImageLink:          string(raw.ImageLink),
		Status:             PlaceStatus(raw.Status),
		CreatedAt:          string(raw.CreatedAt),
	}
	return nil
}

// Editable reports whether the owner may still change the submission.
func (p Place) Editable() bool {
	return p.Status != PlaceStatusApproved
}
