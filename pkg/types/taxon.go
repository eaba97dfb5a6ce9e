package types

import "slices"

// Field length limits for taxon text attributes.
const (
	MaxNameLength        = 64
	MaxDescriptionLength = 255
)

// FilterType selects the filter control used for a taxon in engagement search.
type FilterType string

// Filter types. FilterNone means the taxon is not offered as a filter.
const (
	FilterNone      FilterType = ""
	FilterChips     FilterType = "chips"
	FilterDropdown  FilterType = "dropdown"
	FilterDateRange FilterType = "date_range"
)

// FilterTypes lists the selectable filter types in display order.
var FilterTypes = []FilterType{FilterChips, FilterDropdown, FilterDateRange}

// ParseFilterType converts s to a FilterType.
// Returns ErrInvalidFilterType if s is not empty and not a known filter type.
func ParseFilterType(s string) (FilterType, error) {
	ft := FilterType(s)
	if ft == FilterNone || slices.Contains(FilterTypes, ft) {
		return ft, nil
	}
	return FilterNone, ErrInvalidFilterType
}

// Taxon is a named, typed metadata field definition attachable to engagements.
type Taxon struct {
	ID               int64      `json:"id" yaml:"id"`                                                       // Server-assigned, unique.
	Name             string     `json:"name" yaml:"name" validate:"required,max=64"`                        // Required display name.
	Description      string     `json:"description" yaml:"description" validate:"max=255"`                  // Optional help text.
	DataType         DataType   `json:"data_type" yaml:"data_type"`                                         // Registry key.
	Freeform         bool       `json:"freeform" yaml:"freeform"`                                           // Values outside PresetValues accepted.
	OnePerEngagement bool       `json:"one_per_engagement" yaml:"one_per_engagement"`                       // At most one value per engagement.
	PresetValues     []string   `json:"preset_values" yaml:"preset_values"`                                 // Suggested or enforced options.
	Position         int        `json:"position" yaml:"position"`                                           // Display and filter order, 0-based.
	FilterType       FilterType `json:"filter_type,omitempty" yaml:"filter_type,omitempty" validate:"omitempty,oneof=chips dropdown date_range"`
}

// TaxonDraft is the payload for creating a taxon. The server assigns the ID
// and appends the taxon at the end of the order.
type TaxonDraft struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	DataType         DataType   `json:"data_type"`
	Freeform         bool       `json:"freeform"`
	OnePerEngagement bool       `json:"one_per_engagement"`
	PresetValues     []string   `json:"preset_values"`
	FilterType       FilterType `json:"filter_type,omitempty"`
}

// NewDraft returns a draft for a new taxon of the given type with the
// defaults the editor offers: freeform, unlimited values, no presets, all
// clamped to what the type supports.
func NewDraft(name string, dt DataType) TaxonDraft {
	d := TaxonDraft{
		Name:         name,
		DataType:     dt,
		Freeform:     true,
		PresetValues: []string{},
	}
	d.Normalize()
	return d
}

// Taxon converts the draft to a taxon with zero ID and position.
func (d TaxonDraft) Taxon() Taxon {
	return Taxon{
		Name:             d.Name,
		Description:      d.Description,
		DataType:         d.DataType,
		Freeform:         d.Freeform,
		OnePerEngagement: d.OnePerEngagement,
		PresetValues:     slices.Clone(d.PresetValues),
		FilterType:       d.FilterType,
	}
}

// Normalize forces the capability-controlled fields to what the draft's data
// type allows. See Taxon.Normalize.
func (d *TaxonDraft) Normalize() {
	normalizeCapabilities(d.DataType, &d.Freeform, &d.OnePerEngagement, &d.PresetValues)
}

// Clone returns a deep copy of the taxon.
func (t Taxon) Clone() Taxon {
	c := t
	c.PresetValues = slices.Clone(t.PresetValues)
	if c.PresetValues == nil {
		c.PresetValues = []string{}
	}
	return c
}

// Draft returns the editable fields of t as a draft.
func (t Taxon) Draft() TaxonDraft {
	return TaxonDraft{
		Name:             t.Name,
		Description:      t.Description,
		DataType:         t.DataType,
		Freeform:         t.Freeform,
		OnePerEngagement: t.OnePerEngagement,
		PresetValues:     slices.Clone(t.PresetValues),
		FilterType:       t.FilterType,
	}
}

// Normalize forces Freeform, OnePerEngagement, and PresetValues to values the
// taxon's data type supports:
//
//   - no freeform support: Freeform is false
//   - no multi-value support: OnePerEngagement is true
//   - no preset support: PresetValues is empty and, when freeform is
//     supported, Freeform is true
//
// A type that supports presets keeps whatever Freeform the caller chose; an
// empty preset list with Freeform false is rejected by ValidateTaxon rather
// than silently repaired.
//
// Normalize panics if the data type is not registered.
func (t *Taxon) Normalize() {
	normalizeCapabilities(t.DataType, &t.Freeform, &t.OnePerEngagement, &t.PresetValues)
}

func normalizeCapabilities(dt DataType, freeform, onePer *bool, presets *[]string) {
	desc := Lookup(dt)
	if *presets == nil || !desc.SupportsPresetValues {
		*presets = []string{}
	}
	if !desc.SupportsMulti {
		*onePer = true
	}
	switch {
	case !desc.SupportsFreeform:
		*freeform = false
	case !desc.SupportsPresetValues:
		*freeform = true
	}
}

// SortByPosition sorts taxa in ascending position order, breaking ties by ID.
func SortByPosition(taxa []Taxon) {
	slices.SortStableFunc(taxa, func(a, b Taxon) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Renumber assigns contiguous positions 0..n-1 following the slice order.
func Renumber(taxa []Taxon) {
	for i := range taxa {
		taxa[i].Position = i
	}
}

// IDs returns the taxon IDs in slice order.
func IDs(taxa []Taxon) []int64 {
	ids := make([]int64, len(taxa))
	for i, t := range taxa {
		ids[i] = t.ID
	}
	return ids
}

// CheckValue reports whether value is acceptable for a taxon: it must pass
// the data type's validator and, when the type has presets and the taxon is
// not freeform, be one of the preset values.
// Returns an error wrapping ErrInvalidValue or ErrValueNotPreset.
func (t Taxon) CheckValue(value string) error {
	desc := Lookup(t.DataType)
	if err := desc.Validate(value); err != nil {
		return err
	}
	if desc.SupportsPresetValues && !t.Freeform && !slices.Contains(t.PresetValues, value) {
		return ErrValueNotPreset
	}
	return nil
}
