// Package form edits one taxon definition and validates it against the rules
// of its data type before saving.
package form

import (
	"context"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/mesh-intelligence/taxa/internal/notify"
	"github.com/mesh-intelligence/taxa/internal/taxonomy"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// State is the lifecycle state of a form.
type State int

// Form states. Saved behaves like Clean: the form holds no local edits and is
// bound to the server response.
const (
	Clean State = iota
	Dirty
	Validating
	Saved
	Invalid
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Validating:
		return "validating"
	case Saved:
		return "saved"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// MsgCorrectErrors is the warning sent when a submit fails validation.
const MsgCorrectErrors = "Please correct the highlighted errors"

// Keys accepted by HandleKey besides the platform submit shortcut.
const (
	KeySave   = "ctrl+s"
	KeyCancel = "esc"
)

// SubmitShortcut returns the submit key for the given GOOS value.
func SubmitShortcut(goos string) string {
	if goos == "darwin" {
		return "cmd+enter"
	}
	return "ctrl+enter"
}

// Capabilities reports which capability-controlled fields the current data
// type lets an administrator edit.
type Capabilities struct {
	Freeform         bool
	OnePerEngagement bool
	PresetValues     bool
}

// Form is the per-taxon editor. It is safe for concurrent use, though a UI
// normally drives it from one goroutine.
type Form struct {
	taxa *taxonomy.Context

	mu     sync.Mutex
	bound  types.Taxon
	draft  types.Taxon
	state  State
	errors types.FieldErrors
}

// New binds a form to taxon.
func New(taxa *taxonomy.Context, taxon types.Taxon) *Form {
	return &Form{taxa: taxa, bound: taxon.Clone(), draft: taxon.Clone()}
}

// ForSelected binds a form to the context's selected taxon. Returns false
// when nothing is selected.
func ForSelected(taxa *taxonomy.Context) (*Form, bool) {
	t, ok := taxa.Get(taxa.Selected())
	if !ok {
		return nil, false
	}
	return New(taxa, t), true
}

// ID returns the id of the bound taxon.
func (f *Form) ID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bound.ID
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsDirty reports whether the form holds unsaved edits.
func (f *Form) IsDirty() bool {
	s := f.State()
	return s == Dirty || s == Invalid
}

// Draft returns a copy of the values being edited.
func (f *Form) Draft() types.Taxon {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Errors returns the field errors from the last failed submit.
func (f *Form) Errors() types.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.errors)
}

// Capabilities returns what the draft's data type allows editing.
func (f *Form) Capabilities() Capabilities {
	f.mu.Lock()
	dt := f.draft.DataType
	f.mu.Unlock()
	if _, err := types.ParseDataType(string(dt)); err != nil {
		return Capabilities{}
	}
	desc := types.Lookup(dt)
	return Capabilities{
		Freeform:         desc.SupportsFreeform,
		OnePerEngagement: desc.SupportsMulti,
		PresetValues:     desc.SupportsPresetValues,
	}
}

// SetName sets the name.
func (f *Form) SetName(name string) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.Name, name)
	})
}

// SetDescription sets the description.
func (f *Form) SetDescription(desc string) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.Description, desc)
	})
}

// SetDataType changes the data type. Capability-controlled fields are
// reconciled on submit.
func (f *Form) SetDataType(dt types.DataType) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.DataType, dt)
	})
}

// SetFreeform sets whether values outside the presets are accepted.
func (f *Form) SetFreeform(v bool) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.Freeform, v)
	})
}

// SetOnePerEngagement sets the single-value flag.
func (f *Form) SetOnePerEngagement(v bool) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.OnePerEngagement, v)
	})
}

// SetFilterType sets the filter control.
func (f *Form) SetFilterType(ft types.FilterType) {
	f.edit(func(t *types.Taxon) bool {
		return set(&t.FilterType, ft)
	})
}

// SetPresetValues replaces the preset list.
func (f *Form) SetPresetValues(values []string) {
	f.edit(func(t *types.Taxon) bool {
		if slices.Equal(t.PresetValues, values) {
			return false
		}
		t.PresetValues = slices.Clone(values)
		return true
	})
}

// AddPresetValue appends a preset. Empty values are ignored. A value that
// is not yet a preset is always accepted here, even when the taxon is not
// freeform.
func (f *Form) AddPresetValue(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	f.edit(func(t *types.Taxon) bool {
		t.PresetValues = append(t.PresetValues, value)
		return true
	})
}

// RemovePresetValue removes the preset at index i.
func (f *Form) RemovePresetValue(i int) {
	f.edit(func(t *types.Taxon) bool {
		if i < 0 || i >= len(t.PresetValues) {
			return false
		}
		t.PresetValues = slices.Delete(t.PresetValues, i, i+1)
		return true
	})
}

func (f *Form) edit(apply func(t *types.Taxon) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apply(&f.draft) {
		f.state = Dirty
	}
}

func set[T comparable](dst *T, v T) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

// Submit normalizes the draft to its data type, validates it, and saves it
// through the taxonomy context. A draft that fails validation never reaches
// the backend: the form moves to Invalid, keeps the draft, records field
// errors, and sends a warning. A backend failure leaves the form Dirty; the
// context has already reported it.
func (f *Form) Submit(ctx context.Context) bool {
	f.mu.Lock()
	f.state = Validating
	draft := f.draft.Clone()
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Description = strings.TrimSpace(draft.Description)
	if _, err := types.ParseDataType(string(draft.DataType)); err == nil {
		draft.Normalize()
	}
	f.draft = draft
	errs := types.ValidateTaxon(draft)
	if len(errs) > 0 {
		f.state = Invalid
		f.errors = errs
		f.mu.Unlock()
		f.taxa.Notifier().Notify(notify.Warning(MsgCorrectErrors))
		return false
	}
	f.errors = nil
	f.mu.Unlock()

	saved, ok := f.taxa.Update(ctx, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok {
		f.state = Dirty
		return false
	}
	f.bound = saved.Clone()
	f.draft = saved.Clone()
	f.state = Saved
	return true
}

// Cancel discards local edits and clears the selection.
func (f *Form) Cancel() {
	f.mu.Lock()
	f.draft = f.bound.Clone()
	f.errors = nil
	f.state = Clean
	f.mu.Unlock()
	f.taxa.Select(0)
}

// Delete removes the bound taxon. Confirmation is the caller's concern.
func (f *Form) Delete(ctx context.Context) bool {
	return f.taxa.Remove(ctx, f.ID())
}

// HandleKey reacts to a key press: the platform submit shortcut or KeySave
// submits, KeyCancel cancels. Returns whether the key was handled and, for
// submits, whether the save succeeded.
func (f *Form) HandleKey(ctx context.Context, key string) (handled, ok bool) {
	return f.handleKey(ctx, key, runtime.GOOS)
}

func (f *Form) handleKey(ctx context.Context, key, goos string) (bool, bool) {
	switch key {
	case SubmitShortcut(goos), KeySave:
		return true, f.Submit(ctx)
	case KeyCancel:
		f.Cancel()
		return true, true
	}
	return false, false
}
