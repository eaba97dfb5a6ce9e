package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func validTaxon() Taxon {
	return Taxon{
		ID:           1,
		Name:         "Colour",
		DataType:     DataTypeText,
		Freeform:     false,
		PresetValues: []string{"Red", "Blue"},
	}
}

func TestValidateTaxon(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Taxon)
		wantField string
		wantMsg   string
	}{
		{"valid", func(*Taxon) {}, "", ""},
		{"missing name", func(tx *Taxon) { tx.Name = "" }, FieldName, MsgNameRequired},
		{"long name", func(tx *Taxon) { tx.Name = strings.Repeat("n", 65) }, FieldName, MsgNameTooLong},
		{"64-rune name", func(tx *Taxon) { tx.Name = strings.Repeat("é", 64) }, "", ""},
		{"long description", func(tx *Taxon) { tx.Description = strings.Repeat("d", 256) }, FieldDescription, MsgDescriptionTooLong},
		{"unknown data type", func(tx *Taxon) { tx.DataType = "color" }, FieldDataType, MsgUnknownDataType},
		{"unknown filter type", func(tx *Taxon) { tx.FilterType = "slider" }, FieldFilterType, MsgUnknownFilterType},
		{"presets required", func(tx *Taxon) { tx.PresetValues = []string{} }, FieldPresetValues, MsgPresetRequired},
		{"freeform without presets", func(tx *Taxon) { tx.PresetValues = nil; tx.Freeform = true }, "", ""},
		{"freeform on boolean", func(tx *Taxon) {
			tx.DataType = DataTypeBoolean
			tx.PresetValues = nil
			tx.OnePerEngagement = true
			tx.Freeform = true
		}, FieldFreeform, MsgFreeformUnsupported},
		{"multi on boolean", func(tx *Taxon) {
			tx.DataType = DataTypeBoolean
			tx.PresetValues = nil
		}, FieldOnePerEngagement, MsgOnePerRequired},
		{"bad preset value", func(tx *Taxon) {
			tx.DataType = DataTypeEmail
			tx.PresetValues = []string{"a@example.org", "nope"}
		}, PresetField(1), "Must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTaxon()
			tt.mutate(&tx)
			errs := ValidateTaxon(tx)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Fatalf("ValidateTaxon() = %v, want no errors", errs)
				}
				return
			}
			if got := errs.Message(tt.wantField); got != tt.wantMsg {
				t.Errorf("message for %s = %q, want %q (all: %v)", tt.wantField, got, tt.wantMsg, errs)
			}
		})
	}
}

func TestPhoneRuleRegistered(t *testing.T) {
	if err := valueValidator().Var("+1 (555) 123-4567", "phone"); err != nil {
		t.Errorf("valid phone rejected: %v", err)
	}
	if err := valueValidator().Var("call me", "phone"); err == nil {
		t.Error("invalid phone accepted")
	}
}

func TestMustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an empty tag")
		}
	}()
	mustRegister(validator.New(), "", validatePhone)
}

func TestFieldErrorsIsValidation(t *testing.T) {
	var err error = FieldErrors{{Field: FieldName, Message: MsgNameRequired}}
	if !errors.Is(err, ErrValidation) {
		t.Error("errors.Is(FieldErrors, ErrValidation) = false")
	}
	var fe FieldErrors
	if !errors.As(err, &fe) || !fe.Has(FieldName) {
		t.Error("errors.As did not recover FieldErrors")
	}
	if FieldErrors(nil).Err() != nil {
		t.Error("empty FieldErrors.Err() != nil")
	}
}
