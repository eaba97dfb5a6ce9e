package types

import (
	"errors"
	"testing"
)

func TestLookupEveryDataType(t *testing.T) {
	for _, dt := range DataTypes {
		d := Lookup(dt)
		if d.Key != dt {
			t.Errorf("Lookup(%q).Key = %q", dt, d.Key)
		}
		if d.DisplayName == "" || d.Icon == "" || d.Input == "" {
			t.Errorf("Lookup(%q) has empty display fields: %+v", dt, d)
		}
	}
}

func TestLookupUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Lookup of unknown data type did not panic")
		}
	}()
	Lookup("color")
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr error
	}{
		{"text", DataTypeText, nil},
		{" email ", DataTypeEmail, nil},
		{"long_text", DataTypeLongText, nil},
		{"", "", ErrInvalidDataType},
		{"color", "", ErrInvalidDataType},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDataType(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDataType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBooleanSupportsNoCapabilities(t *testing.T) {
	d := Lookup(DataTypeBoolean)
	if d.SupportsPresetValues || d.SupportsFreeform || d.SupportsMulti {
		t.Errorf("boolean descriptor = %+v, want no capabilities", d)
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		dt    DataType
		value string
		ok    bool
	}{
		{DataTypeText, "Red", true},
		{DataTypeText, "  ", false},
		{DataTypeNumber, "42", true},
		{DataTypeNumber, "-3.5", true},
		{DataTypeNumber, "forty", false},
		{DataTypeBoolean, "true", true},
		{DataTypeBoolean, "yes", false},
		{DataTypeDate, "2024-02-29", true},
		{DataTypeDate, "29/02/2024", false},
		{DataTypeTime, "09:30", true},
		{DataTypeTime, "9am", false},
		{DataTypeDateTime, "2024-02-29T09:30:00Z", true},
		{DataTypeDateTime, "2024-02-29", false},
		{DataTypeURL, "https://example.org/page", true},
		{DataTypeURL, "example", false},
		{DataTypeEmail, "someone@example.org", true},
		{DataTypeEmail, "someone", false},
		{DataTypePhone, "+1 (555) 010-2000", true},
		{DataTypePhone, "call me", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.dt)+"/"+tt.value, func(t *testing.T) {
			err := Lookup(tt.dt).Validate(tt.value)
			if tt.ok && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.value, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Validate(%q) = %v, want ErrInvalidValue", tt.value, err)
			}
		})
	}
}

func TestExternalResource(t *testing.T) {
	tests := []struct {
		dt     DataType
		value  string
		want   string
		wantOK bool
	}{
		{DataTypeEmail, "someone@example.org", "mailto:someone@example.org", true},
		{DataTypePhone, "+15550102000", "tel:+15550102000", true},
		{DataTypeURL, "https://example.org", "https://example.org", true},
		{DataTypeText, "Red", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.dt).ExternalResource(tt.value)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExternalResource(%s, %q) = %q, %v; want %q, %v", tt.dt, tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}
