// Package editor implements the interaction state of the taxa list: which
// cards are expanded, which taxon is selected, and how drags and keyboard
// moves turn into reorder calls.
package editor

import (
	"context"
	"slices"
	"sync"

	"github.com/mesh-intelligence/taxa/internal/taxonomy"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// SkeletonCount is the number of placeholder cards shown while loading. It
// does not depend on how many taxa eventually arrive.
const SkeletonCount = 3

// EmptyMessage is shown in place of the list when no taxa exist.
const EmptyMessage = "No taxa have been defined yet."

// Mode is what the list area renders.
type Mode int

// List modes.
const (
	ModeLoading Mode = iota
	ModeEmpty
	ModeList
)

func (m Mode) String() string {
	switch m {
	case ModeLoading:
		return "loading"
	case ModeEmpty:
		return "empty"
	case ModeList:
		return "list"
	}
	return "unknown"
}

// Card is one rendered taxon.
type Card struct {
	Taxon    types.Taxon
	Expanded bool
	Selected bool
	Icon     string
	TypeName string
}

// View is a snapshot of what the list area shows.
type View struct {
	Mode         Mode
	Skeletons    int
	EmptyMessage string
	Cards        []Card
	// ScrollTo is the id of a card to bring into view, or 0. It stays set
	// until TakeScrollTarget consumes it.
	ScrollTo int64
}

// DragResult describes a finished drag. Source and Destination are list
// indexes; a nil Destination means the card was dropped outside the list.
type DragResult struct {
	Source      int
	Destination *int
}

// Editor holds transient list state over a taxonomy context. Expansion flags
// and the scroll target live here; the selection lives in the context so the
// edit form sees the same value.
type Editor struct {
	taxa *taxonomy.Context

	mu       sync.Mutex
	expanded map[int64]bool
	scrollTo int64
}

// New creates an editor over taxa.
func New(taxa *taxonomy.Context) *Editor {
	return &Editor{taxa: taxa, expanded: make(map[int64]bool)}
}

// Context returns the underlying taxonomy context.
func (e *Editor) Context() *taxonomy.Context {
	return e.taxa
}

// TakeScrollTarget returns the pending scroll target and clears it.
// Returns 0 when nothing is pending.
func (e *Editor) TakeScrollTarget() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.scrollTo
	e.scrollTo = 0
	return id
}

// View renders the current state. Rendering never consumes the scroll
// target.
func (e *Editor) View() View {
	if e.taxa.Loading() {
		return View{Mode: ModeLoading, Skeletons: SkeletonCount}
	}
	list := e.taxa.Taxa()
	if len(list) == 0 {
		return View{Mode: ModeEmpty, EmptyMessage: EmptyMessage}
	}

	selected := e.taxa.Selected()
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{Mode: ModeList, Cards: make([]Card, len(list)), ScrollTo: e.scrollTo}
	for i, t := range list {
		v.Cards[i] = Card{
			Taxon:    t,
			Expanded: e.expanded[t.ID],
			Selected: t.ID == selected,
		}
		if _, err := types.ParseDataType(string(t.DataType)); err == nil {
			desc := types.Lookup(t.DataType)
			v.Cards[i].Icon = desc.Icon
			v.Cards[i].TypeName = desc.DisplayName
		} else {
			v.Cards[i].TypeName = string(t.DataType)
		}
	}
	return v
}

// ToggleSelect selects id, or clears the selection when id is already
// selected. Returns the new selection.
func (e *Editor) ToggleSelect(id int64) int64 {
	if e.taxa.Selected() == id {
		e.taxa.Select(0)
		return 0
	}
	e.taxa.Select(id)
	return id
}

// ToggleExpand flips the expansion flag of id. Selection is unaffected.
func (e *Editor) ToggleExpand(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded[id] = !e.expanded[id]
	if !e.expanded[id] {
		delete(e.expanded, id)
	}
	return e.expanded[id]
}

// Expanded reports whether id is expanded.
func (e *Editor) Expanded(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[id]
}

// ExpandAll expands every card.
func (e *Editor) ExpandAll() {
	list := e.taxa.Taxa()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range list {
		e.expanded[t.ID] = true
	}
}

// CollapseAll collapses every card and clears the selection.
func (e *Editor) CollapseAll() {
	e.mu.Lock()
	clear(e.expanded)
	e.mu.Unlock()
	e.taxa.Select(0)
}

// Drop applies a finished drag. Drops outside the list, onto the source
// index, or with an out-of-range index do nothing and return false.
func (e *Editor) Drop(ctx context.Context, r DragResult) bool {
	if r.Destination == nil {
		return false
	}
	ids := types.IDs(e.taxa.Taxa())
	next, ok := move(ids, r.Source, *r.Destination)
	if !ok {
		return false
	}
	return e.taxa.Reorder(ctx, next)
}

// MoveUp moves id one place earlier in the order.
func (e *Editor) MoveUp(ctx context.Context, id int64) bool {
	return e.shift(ctx, id, -1)
}

// MoveDown moves id one place later in the order.
func (e *Editor) MoveDown(ctx context.Context, id int64) bool {
	return e.shift(ctx, id, 1)
}

func (e *Editor) shift(ctx context.Context, id int64, delta int) bool {
	ids := types.IDs(e.taxa.Taxa())
	i := slices.Index(ids, id)
	if i < 0 {
		return false
	}
	dest := i + delta
	return e.Drop(ctx, DragResult{Source: i, Destination: &dest})
}

// Add creates a taxon from draft, then selects and expands it and asks the
// next View to scroll to it.
func (e *Editor) Add(ctx context.Context, draft types.TaxonDraft) (*types.Taxon, bool) {
	created, ok := e.taxa.Create(ctx, draft)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	e.expanded[created.ID] = true
	e.scrollTo = created.ID
	e.mu.Unlock()
	e.taxa.Select(created.ID)
	return created, true
}

// Remove deletes id and forgets its expansion flag.
func (e *Editor) Remove(ctx context.Context, id int64) bool {
	e.mu.Lock()
	delete(e.expanded, id)
	e.mu.Unlock()
	return e.taxa.Remove(ctx, id)
}

// RemoveSelected deletes the selected taxon. Returns false when nothing is
// selected.
func (e *Editor) RemoveSelected(ctx context.Context) bool {
	id := e.taxa.Selected()
	if id == 0 {
		return false
	}
	return e.Remove(ctx, id)
}

// move returns a copy of ids with the element at from placed at index to.
func move(ids []int64, from, to int) ([]int64, bool) {
	if from == to || from < 0 || to < 0 || from >= len(ids) || to >= len(ids) {
		return nil, false
	}
	out := slices.Clone(ids)
	id := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, id)
	return out, true
}
