package types

import (
	"errors"
	"slices"
	"testing"
)

func TestNormalizeBooleanDraft(t *testing.T) {
	d := TaxonDraft{
		Name:             "Accessible",
		DataType:         DataTypeBoolean,
		Freeform:         true,
		OnePerEngagement: false,
		PresetValues:     []string{"true", "false"},
	}
	d.Normalize()

	if d.Freeform {
		t.Error("Freeform = true, want false")
	}
	if !d.OnePerEngagement {
		t.Error("OnePerEngagement = false, want true")
	}
	if d.PresetValues == nil || len(d.PresetValues) != 0 {
		t.Errorf("PresetValues = %#v, want empty non-nil slice", d.PresetValues)
	}
}

func TestNormalizeLongTextForcesFreeform(t *testing.T) {
	tx := Taxon{Name: "Notes", DataType: DataTypeLongText, PresetValues: []string{"x"}}
	tx.Normalize()

	if !tx.Freeform {
		t.Error("Freeform = false, want true for a type without presets")
	}
	if len(tx.PresetValues) != 0 {
		t.Errorf("PresetValues = %v, want empty", tx.PresetValues)
	}
}

func TestNormalizeKeepsPresetChoice(t *testing.T) {
	tx := Taxon{Name: "Colour", DataType: DataTypeText, PresetValues: nil}
	tx.Normalize()

	if tx.Freeform {
		t.Error("Normalize must not repair Freeform for preset-capable types")
	}
	if tx.PresetValues == nil {
		t.Error("PresetValues = nil, want empty slice")
	}
}

func TestNewDraft(t *testing.T) {
	d := NewDraft("Colour", DataTypeText)
	if !d.Freeform || d.OnePerEngagement || len(d.PresetValues) != 0 {
		t.Errorf("NewDraft(text) = %+v", d)
	}
	b := NewDraft("Open", DataTypeBoolean)
	if b.Freeform || !b.OnePerEngagement {
		t.Errorf("NewDraft(boolean) = %+v", b)
	}
}

func TestSortByPositionAndRenumber(t *testing.T) {
	taxa := []Taxon{
		{ID: 3, Position: 2},
		{ID: 1, Position: 0},
		{ID: 2, Position: 0},
	}
	SortByPosition(taxa)
	if got := IDs(taxa); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Fatalf("IDs after sort = %v, want [1 2 3]", got)
	}
	Renumber(taxa)
	for i, tx := range taxa {
		if tx.Position != i {
			t.Errorf("taxa[%d].Position = %d, want %d", i, tx.Position, i)
		}
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := Taxon{PresetValues: []string{"a"}}
	c := orig.Clone()
	c.PresetValues[0] = "b"
	if orig.PresetValues[0] != "a" {
		t.Error("Clone shares PresetValues with the original")
	}
}

func TestCheckValue(t *testing.T) {
	restricted := Taxon{DataType: DataTypeText, PresetValues: []string{"Red", "Blue"}}
	if err := restricted.CheckValue("Red"); err != nil {
		t.Errorf("CheckValue(Red) = %v, want nil", err)
	}
	if err := restricted.CheckValue("Green"); !errors.Is(err, ErrValueNotPreset) {
		t.Errorf("CheckValue(Green) = %v, want ErrValueNotPreset", err)
	}

	open := restricted
	open.Freeform = true
	if err := open.CheckValue("Green"); err != nil {
		t.Errorf("freeform CheckValue(Green) = %v, want nil", err)
	}

	flag := Taxon{DataType: DataTypeBoolean}
	if err := flag.CheckValue("true"); err != nil {
		t.Errorf("boolean CheckValue(true) = %v, want nil", err)
	}
	if err := flag.CheckValue("maybe"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("boolean CheckValue(maybe) = %v, want ErrInvalidValue", err)
	}
}

func TestParseFilterType(t *testing.T) {
	for _, s := range []string{"", "chips", "dropdown", "date_range"} {
		if _, err := ParseFilterType(s); err != nil {
			t.Errorf("ParseFilterType(%q) = %v", s, err)
		}
	}
	if _, err := ParseFilterType("slider"); !errors.Is(err, ErrInvalidFilterType) {
		t.Errorf("ParseFilterType(slider) = %v, want ErrInvalidFilterType", err)
	}
}
