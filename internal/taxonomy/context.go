// Package taxonomy holds the authoritative in-memory taxa collection and the
// current selection, and brokers every mutation through a backend store.
//
// Backend failures never propagate to callers as errors. They are converted
// to notifications and the operation reports false (or nil). Remove and
// Reorder mutate local state before the backend call; when that call fails
// the local list is marked stale until the next successful Load.
package taxonomy

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/taxa/internal/notify"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Backend is the store collaborator the context talks to.
type Backend = types.Store

// Notification texts emitted by the context.
const (
	MsgLoadFailed    = "Failed to load taxa"
	MsgCreated       = "Taxon created"
	MsgCreateFailed  = "Failed to create taxon"
	MsgUpdated       = "Taxon saved"
	MsgUpdateFailed  = "Failed to save taxon"
	MsgDeleted       = "Taxon deleted"
	MsgDeleteFailed  = "Failed to delete taxon"
	MsgReordered     = "Taxa reordered"
	MsgReorderFailed = "Failed to reorder taxa"
)

// Context is the taxa state store. The zero value is not usable; call New.
//
// The mutex guards memory only. Backend calls run without it, so concurrent
// operations may interleave at the server and the last response to arrive
// wins.
type Context struct {
	backend  Backend
	notifier types.Notifier

	mu       sync.Mutex
	taxa     []types.Taxon
	selected int64
	loading  bool
	stale    bool
	subs     map[chan struct{}]struct{}
}

// New creates a context over backend. Notifications go to notifier; a nil
// notifier discards them.
func New(backend Backend, notifier types.Notifier) *Context {
	if backend == nil {
		panic("taxonomy.New: backend is nil")
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Context{
		backend:  backend,
		notifier: notifier,
		loading:  true,
		subs:     make(map[chan struct{}]struct{}),
	}
}

// Notifier returns the sink the context reports to, so collaborators such as
// the edit form can report on the same channel.
func (c *Context) Notifier() types.Notifier {
	return c.notifier
}

// Load fetches the full ordered list from the backend and replaces local
// state. On failure it notifies and leaves the list empty. Loading is false
// once Load returns, whatever the outcome.
func (c *Context) Load(ctx context.Context) bool {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	c.changed()

	taxa, err := c.backend.ListTaxa(ctx)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.taxa = nil
		c.stale = true
	} else {
		c.replaceLocked(taxa)
		c.stale = false
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.fail(MsgLoadFailed, err)
		return false
	}
	return true
}

// Create sends draft to the backend and appends the returned taxon to the end
// of local state. The caller decides whether to select it. Returns nil and
// false on failure.
func (c *Context) Create(ctx context.Context, draft types.TaxonDraft) (*types.Taxon, bool) {
	created, err := c.backend.CreateTaxon(ctx, draft)
	if err != nil {
		c.fail(MsgCreateFailed, err)
		return nil, false
	}

	c.mu.Lock()
	c.taxa = append(c.taxa, created.Clone())
	c.mu.Unlock()
	c.changed()

	c.notify(notify.Success(MsgCreated))
	out := created.Clone()
	return &out, true
}

// Update sends the full record to the backend and replaces the matching local
// entry in place. Returns nil and false on failure.
func (c *Context) Update(ctx context.Context, taxon types.Taxon) (*types.Taxon, bool) {
	updated, err := c.backend.UpdateTaxon(ctx, taxon.ID, taxon)
	if err != nil {
		c.fail(MsgUpdateFailed, err)
		return nil, false
	}

	c.mu.Lock()
	if i := c.indexLocked(updated.ID); i >= 0 {
		c.taxa[i] = updated.Clone()
	}
	c.mu.Unlock()
	c.changed()

	c.notify(notify.Success(MsgUpdated))
	out := updated.Clone()
	return &out, true
}

// Remove drops id from local state, moving the selection to a neighbor when
// id was selected, then deletes it at the backend and re-fetches the list to
// reconcile positions. The neighbor is the next taxon by position, else the
// previous one, else none.
func (c *Context) Remove(ctx context.Context, id int64) bool {
	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		if c.selected == id {
			c.selected = neighbor(c.taxa, i)
		}
		c.taxa = append(c.taxa[:i:i], c.taxa[i+1:]...)
		types.Renumber(c.taxa)
	}
	c.mu.Unlock()
	c.changed()

	if err := c.backend.DeleteTaxon(ctx, id); err != nil {
		c.markStale()
		c.fail(MsgDeleteFailed, err)
		return false
	}

	taxa, err := c.backend.ListTaxa(ctx)
	if err != nil {
		c.markStale()
		c.fail(MsgLoadFailed, err)
		return false
	}

	c.mu.Lock()
	c.replaceLocked(taxa)
	c.stale = false
	c.mu.Unlock()
	c.changed()

	c.notify(notify.Success(MsgDeleted))
	return true
}

// Reorder applies ids to local state immediately, then persists the order and
// replaces local state with the backend's authoritative list. Unknown ids are
// skipped and local taxa missing from ids keep their relative order after the
// listed ones. On failure the optimistic order stays and the state is marked
// stale.
func (c *Context) Reorder(ctx context.Context, ids []int64) bool {
	c.mu.Lock()
	c.taxa = arrange(c.taxa, ids)
	c.mu.Unlock()
	c.changed()

	taxa, err := c.backend.ReorderTaxa(ctx, ids)
	if err != nil {
		c.markStale()
		c.fail(MsgReorderFailed, err)
		return false
	}

	c.mu.Lock()
	c.replaceLocked(taxa)
	c.stale = false
	c.mu.Unlock()
	c.changed()

	c.notify(notify.Success(MsgReordered))
	return true
}

// Select sets the selected taxon. Zero clears the selection.
func (c *Context) Select(id int64) {
	c.mu.Lock()
	if c.selected == id {
		c.mu.Unlock()
		return
	}
	c.selected = id
	c.mu.Unlock()
	c.changed()
}

// Selected returns the selected taxon id, or 0 when nothing is selected.
func (c *Context) Selected() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Taxa returns a copy of the taxa in position order.
func (c *Context) Taxa() []types.Taxon {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Taxon, len(c.taxa))
	for i, t := range c.taxa {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the taxon with id.
func (c *Context) Get(id int64) (types.Taxon, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.taxa[i].Clone(), true
	}
	return types.Taxon{}, false
}

// Loading reports whether the initial load has not completed yet.
func (c *Context) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Stale reports whether local state may disagree with the backend because a
// backend call failed after an optimistic update.
func (c *Context) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Subscribe returns a channel that receives a signal after every state
// change. Signals coalesce: a slow reader sees at least one pending signal,
// not one per change.
func (c *Context) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (c *Context) Unsubscribe(ch <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		if (<-chan struct{})(sub) == ch {
			delete(c.subs, sub)
			close(sub)
			return
		}
	}
}

func (c *Context) changed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Context) markStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
	c.changed()
}

func (c *Context) notify(n types.Notification) {
	c.notifier.Notify(n)
}

func (c *Context) fail(text string, err error) {
	c.notify(notify.Error(fmt.Sprintf("%s: %v", text, err)))
}

// replaceLocked installs an authoritative list. The selection is kept only if
// the selected taxon still exists.
func (c *Context) replaceLocked(taxa []types.Taxon) {
	next := make([]types.Taxon, len(taxa))
	for i, t := range taxa {
		next[i] = t.Clone()
	}
	types.SortByPosition(next)
	c.taxa = next
	if c.selected != 0 && c.indexLocked(c.selected) < 0 {
		c.selected = 0
	}
}

func (c *Context) indexLocked(id int64) int {
	for i, t := range c.taxa {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// neighbor returns the id that takes over the selection when taxa[i] is
// removed.
func neighbor(taxa []types.Taxon, i int) int64 {
	switch {
	case i+1 < len(taxa):
		return taxa[i+1].ID
	case i > 0:
		return taxa[i-1].ID
	}
	return 0
}

// arrange returns taxa in the order given by ids with positions renumbered.
func arrange(taxa []types.Taxon, ids []int64) []types.Taxon {
	byID := make(map[int64]types.Taxon, len(taxa))
	for _, t := range taxa {
		byID[t.ID] = t
	}
	out := make([]types.Taxon, 0, len(taxa))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			delete(byID, id)
		}
	}
	for _, t := range taxa {
		if _, ok := byID[t.ID]; ok {
			out = append(out, t)
		}
	}
	types.Renumber(out)
	return out
}
