package types

import (
	"fmt"
	"strings"
)

// DataType is the registry key naming what kind of value a taxon holds.
type DataType string

// Data types known to the registry.
const (
	DataTypeText     DataType = "text"
	DataTypeLongText DataType = "long_text"
	DataTypeNumber   DataType = "number"
	DataTypeBoolean  DataType = "boolean"
	DataTypeDate     DataType = "date"
	DataTypeTime     DataType = "time"
	DataTypeDateTime DataType = "datetime"
	DataTypeURL      DataType = "url"
	DataTypeEmail    DataType = "email"
	DataTypePhone    DataType = "phone"
)

// DataTypes lists every registered data type in the order the editor offers
// them.
var DataTypes = []DataType{
	DataTypeText,
	DataTypeLongText,
	DataTypeNumber,
	DataTypeBoolean,
	DataTypeDate,
	DataTypeTime,
	DataTypeDateTime,
	DataTypeURL,
	DataTypeEmail,
	DataTypePhone,
}

// ParseDataType converts s to a registered DataType.
// Returns ErrInvalidDataType for an unknown key.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.TrimSpace(s))
	for _, known := range DataTypes {
		if dt == known {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDataType, s)
}

// InputKind names the value-entry control used for a data type.
type InputKind string

// Input kinds. InputText is the default single-line text input.
const (
	InputText      InputKind = "text"
	InputMultiline InputKind = "multiline"
	InputNumber    InputKind = "number"
	InputToggle    InputKind = "toggle"
	InputDate      InputKind = "date"
	InputTime      InputKind = "time"
	InputDateTime  InputKind = "datetime"
)

// Descriptor is the static capability record for one data type. It decides
// which of Freeform, OnePerEngagement, and PresetValues an administrator may
// edit, how individual values are validated, and which input control entry
// forms use.
type Descriptor struct {
	Key                  DataType  `json:"key" yaml:"key"`
	DisplayName          string    `json:"display_name" yaml:"display_name"`
	Icon                 string    `json:"icon" yaml:"icon"`
	SupportsPresetValues bool      `json:"supports_preset_values" yaml:"supports_preset_values"`
	SupportsFreeform     bool      `json:"supports_freeform" yaml:"supports_freeform"`
	SupportsMulti        bool      `json:"supports_multi" yaml:"supports_multi"`
	Input                InputKind `json:"input" yaml:"input"`

	rule           string // validator/v10 tag applied to single values.
	ruleMessage    string // User-facing text when rule fails.
	resourcePrefix string // URL scheme prefix for ExternalResource; "" when none.
	linkable       bool   // Value itself is an external resource.
}

// Validate checks a single value against the data type's rule.
// Returns an error wrapping ErrInvalidValue on failure.
func (d Descriptor) Validate(value string) error {
	if err := valueValidator().Var(strings.TrimSpace(value), d.rule); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, d.ruleMessage)
	}
	return nil
}

// RuleMessage returns the message shown when a value fails Validate.
func (d Descriptor) RuleMessage() string {
	return d.ruleMessage
}

// ExternalResource returns a link for value, such as a mailto: or tel: URL.
// The second result is false for data types without external resources.
func (d Descriptor) ExternalResource(value string) (string, bool) {
	switch {
	case d.resourcePrefix != "":
		return d.resourcePrefix + strings.TrimSpace(value), true
	case d.linkable:
		return strings.TrimSpace(value), true
	}
	return "", false
}

// Lookup returns the descriptor for dt. Every data type has exactly one
// descriptor. Looking up an unregistered key is a programming error and
// panics; use ParseDataType on untrusted input first.
func Lookup(dt DataType) Descriptor {
	switch dt {
	case DataTypeText:
		return Descriptor{
			Key: dt, DisplayName: "Text", Icon: "text_fields",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputText,
			rule:  "required", ruleMessage: "Value is required",
		}
	case DataTypeLongText:
		return Descriptor{
			Key: dt, DisplayName: "Long text", Icon: "notes",
			SupportsFreeform: true, SupportsMulti: true,
			Input: InputMultiline,
			rule:  "required", ruleMessage: "Value is required",
		}
	case DataTypeNumber:
		return Descriptor{
			Key: dt, DisplayName: "Number", Icon: "numbers",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputNumber,
			rule:  "required,numeric", ruleMessage: "Must be a number",
		}
	case DataTypeBoolean:
		return Descriptor{
			Key: dt, DisplayName: "Yes/No", Icon: "toggle_on",
			Input: InputToggle,
			rule:  "required,oneof=true false", ruleMessage: "Must be true or false",
		}
	case DataTypeDate:
		return Descriptor{
			Key: dt, DisplayName: "Date", Icon: "calendar_today",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputDate,
			rule:  "required,datetime=2006-01-02", ruleMessage: "Must be a date (YYYY-MM-DD)",
		}
	case DataTypeTime:
		return Descriptor{
			Key: dt, DisplayName: "Time", Icon: "schedule",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputTime,
			rule:  "required,datetime=15:04", ruleMessage: "Must be a time (HH:MM)",
		}
	case DataTypeDateTime:
		return Descriptor{
			Key: dt, DisplayName: "Date and time", Icon: "event",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputDateTime,
			rule:  "required,datetime=2006-01-02T15:04:05Z07:00", ruleMessage: "Must be a date and time (RFC 3339)",
		}
	case DataTypeURL:
		return Descriptor{
			Key: dt, DisplayName: "URL", Icon: "link",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputText,
			rule:  "required,http_url", ruleMessage: "Must be a valid http(s) URL",
			linkable: true,
		}
	case DataTypeEmail:
		return Descriptor{
			Key: dt, DisplayName: "Email", Icon: "email",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputText,
			rule:  "required,email", ruleMessage: "Must be a valid email address",
			resourcePrefix: "mailto:",
		}
	case DataTypePhone:
		return Descriptor{
			Key: dt, DisplayName: "Phone", Icon: "phone",
			SupportsPresetValues: true, SupportsFreeform: true, SupportsMulti: true,
			Input: InputText,
			rule:  "required,phone", ruleMessage: "Must be a valid phone number",
			resourcePrefix: "tel:",
		}
	}
	panic(fmt.Sprintf("types: no descriptor registered for data type %q", dt))
}

// Descriptors returns the descriptor of every registered data type, in
// DataTypes order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(DataTypes))
	for i, dt := range DataTypes {
		out[i] = Lookup(dt)
	}
	return out
}
