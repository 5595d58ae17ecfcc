package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmissionDraftSetAndGet(t *testing.T) {
	draft := NewSubmissionDraft("Jane Doe")

	require.NoError(t, draft.Set(FieldPlaceName, "Enchanted River"))
	require.NoError(t, draft.Set(FieldRoomOrCottagePrice, "₱1,500"))

	value, err := draft.Get(FieldPlaceName)
	require.NoError(t, err)
	require.Equal(t, "Enchanted River", value)

	value, err = draft.Get(FieldStatus)
	require.NoError(t, err)
	require.Equal(t, string(PlaceStatusPending), value)

	require.ErrorIs(t, draft.Set(FieldSubmitterName, "Mallory"), ErrReadOnlyField)
	require.ErrorIs(t, draft.Set(FieldImage, "x"), ErrReadOnlyField)
	require.ErrorIs(t, draft.Set("rating", "5"), ErrUnknownField)

	_, err = draft.Get("rating")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestSubmissionDraftTextFieldsOrder(t *testing.T) {
	draft := NewSubmissionDraft("Jane Doe")
	draft.Status = ""

	fields := draft.TextFields()
	require.Len(t, fields, 15)
	require.Equal(t, FieldSubmitterName, fields[0].Key)
	require.Equal(t, "Jane Doe", fields[0].Value)
	require.Equal(t, FieldStatus, fields[len(fields)-1].Key)
	require.Equal(t, string(PlaceStatusPending), fields[len(fields)-1].Value)
}

func TestSubmissionDraftCloneCopiesImage(t *testing.T) {
	draft := NewSubmissionDraft("Jane Doe")
	draft.Image = &ImageFile{Name: "a.png", Data: []byte{1, 2, 3}}

	clone := draft.Clone()
	clone.Image.Data[0] = 9

	require.Equal(t, byte(1), draft.Image.Data[0])
	require.Equal(t, 3, clone.Image.Size())

	var missing *ImageFile
	require.Zero(t, missing.Size())
}

func TestDraftFromPlace(t *testing.T) {
	place := Place{
		ID:        "4",
		Name:      "Juan Cruz",
		PlaceName: "Sohoton Cove",
		Province:  "Surigao del Norte",
		Services:  "Boat rental",
		History:   "Named after the cove's caves.",
		MapIframe: "<iframe></iframe>",
		ImageLink: "https://cdn.test/sohoton.jpg",
		Status:    PlaceStatusRejected,
	}

	draft := DraftFromPlace(place, "")
	require.Equal(t, "Juan Cruz", draft.SubmitterName)
	require.Equal(t, "Sohoton Cove", draft.PlaceName)
	require.Equal(t, "Boat rental", draft.Services)
	require.Equal(t, "Named after the cove's caves.", draft.History)
	require.Equal(t, "https://cdn.test/sohoton.jpg", draft.ExistingImage)
	require.Equal(t, PlaceStatusPending, draft.Status)
	require.Nil(t, draft.Image)

	require.Equal(t, "Jane Doe", DraftFromPlace(place, "Jane Doe").SubmitterName)
}

func TestPlaceIDUnmarshal(t *testing.T) {
	var payload struct {
		ID PlaceID `json:"id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &payload))
	require.Equal(t, PlaceID("42"), payload.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc-1"}`), &payload))
	require.Equal(t, "abc-1", payload.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &payload))
	require.Empty(t, payload.ID)

	require.Error(t, json.Unmarshal([]byte(`{"id": true}`), &payload))
}

func TestPlaceUnmarshalNumericAndNullColumns(t *testing.T) {
	var place Place
	payload := `{"id": 12, "place_name": "Tinuy-an Falls", "entrance_fee": 50, "room_or_cottage_price": 1500.5, "history": null, "services": false, "status": "Approved"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &place))

	require.Equal(t, PlaceID("12"), place.ID)
	require.Equal(t, "Tinuy-an Falls", place.PlaceName)
	require.Equal(t, "50", place.EntranceFee)
	require.Equal(t, "1500.5", place.RoomOrCottagePrice)
	require.Empty(t, place.History)
	require.Equal(t, "false", place.Services)
	require.Equal(t, PlaceStatusApproved, place.Status)

	var list []Place
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 1, "entrance_fee": 20}, {"id": "2", "entrance_fee": "Free"}]`), &list))
	require.Len(t, list, 2)
	require.Equal(t, "20", list[0].EntranceFee)
	require.Equal(t, "Free", list[1].EntranceFee)
}

func TestPlaceEditableAndProvinces(t *testing.T) {
	require.True(t, Place{Status: PlaceStatusPending}.Editable())
	require.True(t, Place{Status: PlaceStatusRejected}.Editable())
	require.False(t, Place{Status: PlaceStatusApproved}.Editable())

	require.True(t, IsProvince("Dinagat Islands"))
	require.False(t, IsProvince("Cebu"))
}

func TestIdentityDisplayName(t *testing.T) {
	require.Equal(t, "Jane", Identity{ID: "1", Name: "Jane", Email: "j@x.io"}.DisplayName())
	require.Equal(t, "j@x.io", Identity{ID: "1", Email: "j@x.io"}.DisplayName())
	require.False(t, Identity{}.Present())
}
