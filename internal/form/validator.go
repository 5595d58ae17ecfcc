package form

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/spot-form-api/internal/models"
)

const (
	msgInvalidEmail    = "Please enter a valid email address"
	msgInvalidPhone    = "Please enter a valid phone number"
	msgInvalidProvince = "Please select a valid province"
	msgImageRequired   = "Image is required"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ErrorSet maps draft field keys to a human readable message.
type ErrorSet map[string]string

// Valid reports whether no errors were recorded.
func (e ErrorSet) Valid() bool {
	return len(e) == 0
}

// Clone copies the set.
func (e ErrorSet) Clone() ErrorSet {
	out := make(ErrorSet, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// draftRules projects the validated part of a draft onto validator tags.
type draftRules struct {
	PlaceName    string `field:"place_name" label:"Place name" validate:"notblank"`
	Province     string `field:"province" label:"Province" validate:"omitempty,province"`
	Address      string `field:"address" label:"Address" validate:"notblank"`
	EmailAddress string `field:"email_address" label:"Email address" validate:"notblank,spotemail"`
	ContactNo    string `field:"contact_no" label:"Contact number" validate:"notblank,spotphone"`
	Description  string `field:"description" label:"Description" validate:"notblank"`
}

var fieldLabels = func() map[string]string {
	labels := map[string]string{}
	t := reflect.TypeOf(draftRules{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		labels[f.Tag.Get("field")] = f.Tag.Get("label")
	}
	return labels
}()

// Validator checks a draft before it is sent upstream.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the draft rules on a fresh validator instance.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("spotemail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = validate.RegisterValidation("spotphone", func(fl validator.FieldLevel) bool {
		return IsPhoneNumber(fl.Field().String())
	})
	_ = validate.RegisterValidation("province", func(fl validator.FieldLevel) bool {
		return models.IsProvince(fl.Field().String())
	})
	return &Validator{validate: validate}
}

// Validate runs every rule against the draft and returns the failures keyed
// by field. A missing image is tolerated while editing a stored submission.
func (v *Validator) Validate(draft models.SubmissionDraft, editing bool) ErrorSet {
	errs := ErrorSet{}

	rules := draftRules{
		PlaceName:    draft.PlaceName,
		Province:     draft.Province,
		Address:      draft.Address,
		EmailAddress: draft.EmailAddress,
		ContactNo:    draft.ContactNo,
		Description:  draft.Description,
	}
	if err := v.validate.Struct(rules); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				errs[fe.Field()] = messageFor(fe)
			}
		}
	}

	if draft.Image.Size() == 0 && !editing {
		errs[models.FieldImage] = msgImageRequired
	}

	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "spotemail":
		return msgInvalidEmail
	case "spotphone":
		return msgInvalidPhone
	case "province":
		return msgInvalidProvince
	default:
		return fieldLabels[fe.Field()] + " is required"
	}
}

// IsEmail applies the loose non-whitespace@non-whitespace.non-whitespace check.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPhoneNumber reports whether value has 10 or 11 digits once every
// non-digit character is stripped.
func IsPhoneNumber(value string) bool {
	digits := len(DigitsOnly(value))
	return digits == 10 || digits == 11
}

// DigitsOnly removes every character other than the ASCII digits 0-9.
func DigitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}
