package types

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Field names used in FieldError, matching the taxon's JSON names.
const (
	FieldName             = "name"
	FieldDescription      = "description"
	FieldDataType         = "data_type"
	FieldFreeform         = "freeform"
	FieldOnePerEngagement = "one_per_engagement"
	FieldPresetValues     = "preset_values"
	FieldFilterType       = "filter_type"
)

// Messages attached to record-level validation failures.
const (
	MsgNameRequired        = "Name is required"
	MsgNameTooLong         = "Name must be at most 64 characters"
	MsgDescriptionTooLong  = "Description must be at most 255 characters"
	MsgUnknownDataType     = "Unknown data type"
	MsgFreeformUnsupported = "This type does not accept freeform values"
	MsgOnePerRequired      = "This type allows only one value per engagement"
	MsgPresetRequired      = "preset value required"
	MsgUnknownFilterType   = "Unknown filter type"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// phonePattern accepts an optional leading +, then digits with common
// separators, 7 to 20 characters overall.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,18}[0-9]$`)

// valueValidator returns the shared validator with the custom rules
// registered.
func valueValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "phone", validatePhone)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// mustRegister adds a custom tag to v. A registration failure is a
// programming error and panics.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("types: register %q validation: %v", tag, err))
	}
}

// validatePhone checks phone-number shape.
func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// FieldError is a validation failure attached to one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects per-field validation failures. A non-empty FieldErrors
// satisfies errors.Is(err, ErrValidation).
type FieldErrors []FieldError

// Error joins all field messages.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Field + ": " + e.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Err returns fe as an error, or nil if there are no failures.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Message returns the first message recorded for field, or "".
func (fe FieldErrors) Message(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Has reports whether any failure is recorded for field.
func (fe FieldErrors) Has(field string) bool {
	return fe.Message(field) != ""
}

func (fe *FieldErrors) add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Message: msg})
}

// ValidateTaxon checks a taxon against the record rules and the rules of its
// data type's descriptor:
//
//   - name is required and at most MaxNameLength characters
//   - description is at most MaxDescriptionLength characters
//   - freeform is false when the type does not support freeform values
//   - one_per_engagement is true when the type does not support multiple values
//   - preset_values is non-empty when the type supports presets and the taxon
//     is not freeform, and each preset passes the type's value validator
//
// An unknown data type is reported as a data_type failure instead of panicking
// so that untrusted records can be checked.
func ValidateTaxon(t Taxon) FieldErrors {
	var errs FieldErrors

	if err := valueValidator().Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.add(FieldName, err.Error())
			return errs
		}
		for _, fe := range verrs {
			errs.add(fe.Field(), structRuleMessage(fe))
		}
	}

	if _, err := ParseDataType(string(t.DataType)); err != nil {
		errs.add(FieldDataType, MsgUnknownDataType)
		return errs
	}
	desc := Lookup(t.DataType)

	if t.Freeform && !desc.SupportsFreeform {
		errs.add(FieldFreeform, MsgFreeformUnsupported)
	}
	if !t.OnePerEngagement && !desc.SupportsMulti {
		errs.add(FieldOnePerEngagement, MsgOnePerRequired)
	}
	if desc.SupportsPresetValues {
		if !t.Freeform && len(t.PresetValues) == 0 {
			errs.add(FieldPresetValues, MsgPresetRequired)
		}
		for i, v := range t.PresetValues {
			if err := desc.Validate(v); err != nil {
				errs.add(PresetField(i), desc.RuleMessage())
			}
		}
	}
	return errs
}

// PresetField returns the field name used for errors on the i-th preset value.
func PresetField(i int) string {
	return fmt.Sprintf("%s[%d]", FieldPresetValues, i)
}

// structRuleMessage maps a struct-tag failure to a user-facing message.
func structRuleMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldName:
		if fe.Tag() == "required" {
			return MsgNameRequired
		}
		return MsgNameTooLong
	case FieldDescription:
		return MsgDescriptionTooLong
	case FieldFilterType:
		return MsgUnknownFilterType
	}
	return fmt.Sprintf("failed %s rule", fe.Tag())
}
