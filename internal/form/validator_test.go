package form

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/spot-form-api/internal/models"
)

func validDraft() models.SubmissionDraft {
	draft := models.NewSubmissionDraft("Jane Doe")
	draft.PlaceName = "Tinuy-an Falls"
	draft.Province = "Surigao del Sur"
	draft.Address = "Bislig City"
	draft.EmailAddress = "jane@example.com"
	draft.ContactNo = "09123456789"
	draft.Description = "Three-tiered waterfall."
	draft.Image = &models.ImageFile{Name: "falls.png", Data: pngBytes()}
	return draft
}

func TestValidatorAcceptsCompleteDraft(t *testing.T) {
	errs := NewValidator().Validate(validDraft(), false)
	require.True(t, errs.Valid(), "unexpected errors: %v", errs)
}

func TestValidatorRequiredFields(t *testing.T) {
	cases := []struct {
		field   string
		blank   func(d *models.SubmissionDraft)
		message string
	}{
		{models.FieldPlaceName, func(d *models.SubmissionDraft) { d.PlaceName = "" }, "Place name is required"},
		{models.FieldAddress, func(d *models.SubmissionDraft) { d.Address = "   " }, "Address is required"},
		{models.FieldEmailAddress, func(d *models.SubmissionDraft) { d.EmailAddress = "" }, "Email address is required"},
		{models.FieldContactNo, func(d *models.SubmissionDraft) { d.ContactNo = "" }, "Contact number is required"},
		{models.FieldDescription, func(d *models.SubmissionDraft) { d.Description = "\t" }, "Description is required"},
	}

	validator := NewValidator()
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			draft := validDraft()
			tc.blank(&draft)

			errs := validator.Validate(draft, false)
			require.Equal(t, ErrorSet{tc.field: tc.message}, errs)
		})
	}
}

func TestValidatorReportsOnlyMissingAndMalformedFields(t *testing.T) {
	draft := validDraft()
	draft.PlaceName = ""
	draft.Description = ""
	draft.EmailAddress = "not-an-email"

	errs := NewValidator().Validate(draft, false)
	require.Equal(t, ErrorSet{
		models.FieldPlaceName:    "Place name is required",
		models.FieldDescription:  "Description is required",
		models.FieldEmailAddress: "Please enter a valid email address",
	}, errs)
}

func TestValidatorEmailFormat(t *testing.T) {
	draft := validDraft()
	draft.EmailAddress = "not-an-email"

	errs := NewValidator().Validate(draft, false)
	require.Equal(t, "Please enter a valid email address", errs[models.FieldEmailAddress])

	empty := models.NewSubmissionDraft("Jane Doe")
	empty.EmailAddress = "not-an-email"
	errs = NewValidator().Validate(empty, false)
	require.Equal(t, "Please enter a valid email address", errs[models.FieldEmailAddress])
}

func TestValidatorPhoneDigits(t *testing.T) {
	validator := NewValidator()

	draft := validDraft()
	draft.ContactNo = "09-5181-4975-3"
	require.NotContains(t, validator.Validate(draft, false), models.FieldContactNo)

	draft.ContactNo = "(082) 123 4567"
	require.NotContains(t, validator.Validate(draft, false), models.FieldContactNo)

	draft.ContactNo = "12345"
	require.Equal(t, "Please enter a valid phone number", validator.Validate(draft, false)[models.FieldContactNo])

	draft.ContactNo = "091234567890"
	require.Equal(t, "Please enter a valid phone number", validator.Validate(draft, false)[models.FieldContactNo])
}

func TestValidatorImageRequiredOnlyWhenCreating(t *testing.T) {
	draft := validDraft()
	draft.Image = nil

	validator := NewValidator()
	require.Equal(t, ErrorSet{models.FieldImage: "Image is required"}, validator.Validate(draft, false))
	require.True(t, validator.Validate(draft, true).Valid())
}

func TestValidatorProvince(t *testing.T) {
	validator := NewValidator()

	draft := validDraft()
	draft.Province = ""
	require.True(t, validator.Validate(draft, false).Valid())

	draft.Province = "Metro Manila"
	require.Equal(t, ErrorSet{models.FieldProvince: "Please select a valid province"}, validator.Validate(draft, false))
}

func TestDigitsOnly(t *testing.T) {
	require.Equal(t, "09518149753", DigitsOnly("09-5181-4975-3"))
	require.Equal(t, "", DigitsOnly("n/a"))
}

func TestPhoneRuleCountsOnlyASCIIDigits(t *testing.T) {
	require.Equal(t, "", DigitsOnly("０９１２３４５６７８９"))
	require.Equal(t, "0912", DigitsOnly("٠٩0912"))
	require.False(t, IsPhoneNumber("０９１２３４５６７８９"))
	require.True(t, IsPhoneNumber("0912-345-6789"))

	draft := validDraft()
	draft.ContactNo = "０９１２-３４５-６７８９"
	errs := NewValidator().Validate(draft, false)
	require.Equal(t, "Please enter a valid phone number", errs[models.FieldContactNo])
}
