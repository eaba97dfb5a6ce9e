// Package tui is the terminal front end of the taxonomy editor: a card list
// with selection, expansion, and reordering, plus an edit form for the
// selected taxon.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/taxa/internal/editor"
	"github.com/mesh-intelligence/taxa/internal/form"
	"github.com/mesh-intelligence/taxa/internal/notify"
	"github.com/mesh-intelligence/taxa/internal/taxonomy"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// newTaxonName is the base name given to taxa created with the add key.
const newTaxonName = "New taxon"

type (
	// changedMsg signals a taxonomy state change.
	changedMsg struct{}
	// opDoneMsg reports that a backend operation finished.
	opDoneMsg struct{}
	// submitDoneMsg reports the result of a form key handled off the UI loop.
	submitDoneMsg struct {
		key string
		ok  bool
	}
)

// Model is the bubbletea model for the editor.
type Model struct {
	ctx     context.Context
	editor  *editor.Editor
	taxa    *taxonomy.Context
	notes   *notify.Recorder
	changes <-chan struct{}
	styles  Styles

	cursor int
	busy   bool
	width  int

	form   *form.Form
	inputs []textinput.Model
	focus  int
}

// New returns a model over ed. notes must be a notifier the taxonomy context
// reports to; the last notification is shown in the status line.
func New(ctx context.Context, ed *editor.Editor, notes *notify.Recorder) Model {
	tc := ed.Context()
	return Model{
		ctx:     ctx,
		editor:  ed,
		taxa:    tc,
		notes:   notes,
		changes: tc.Subscribe(),
		styles:  DefaultStyles(),
	}
}

// Init starts the initial load and the change watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run(func() { m.taxa.Load(m.ctx) }), m.waitForChange())
}

// Close stops the change watcher.
func (m Model) Close() {
	m.taxa.Unsubscribe(m.changes)
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// run executes a blocking taxonomy operation off the UI loop.
func (m Model) run(op func()) tea.Cmd {
	return func() tea.Msg {
		op()
		return opDoneMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case changedMsg:
		m.clampCursor()
		return m, m.waitForChange()
	case opDoneMsg:
		m.busy = false
		m.follow()
		return m, nil
	case submitDoneMsg:
		m.busy = false
		switch {
		case msg.key == form.KeyCancel:
			m.closeForm()
		case m.form != nil:
			m.loadInputs()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cards := m.editor.View().Cards
	var current int64
	if m.cursor < len(cards) {
		current = cards[m.cursor].Taxon.ID
	}

	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		if m.cursor < len(cards)-1 {
			m.cursor++
		}
	case "enter":
		if current != 0 && m.editor.ToggleSelect(current) != 0 {
			m.openForm()
		}
	case " ":
		if current != 0 {
			m.editor.ToggleExpand(current)
		}
	case "E":
		m.editor.ExpandAll()
	case "C":
		m.editor.CollapseAll()
	case "K":
		if current != 0 && m.cursor > 0 {
			m.cursor--
			return m.start(func() { m.editor.MoveUp(m.ctx, current) })
		}
	case "J":
		if current != 0 && m.cursor < len(cards)-1 {
			m.cursor++
			return m.start(func() { m.editor.MoveDown(m.ctx, current) })
		}
	case "a":
		draft := types.NewDraft(m.uniqueName(cards), types.DataTypeText)
		return m.start(func() { m.editor.Add(m.ctx, draft) })
	case "d":
		return m.start(func() { m.editor.RemoveSelected(m.ctx) })
	case "r":
		return m.start(func() { m.taxa.Load(m.ctx) })
	}
	return m, nil
}

func (m Model) start(op func()) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, m.run(op)
}

// follow moves the cursor to a card the editor asked to reveal, and opens
// the form when a new taxon was added.
func (m *Model) follow() {
	if id := m.editor.TakeScrollTarget(); id != 0 {
		for i, t := range m.taxa.Taxa() {
			if t.ID == id {
				m.cursor = i
			}
		}
		if m.taxa.Selected() == id {
			m.openForm()
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.taxa.Taxa())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) uniqueName(cards []editor.Card) string {
	taken := make(map[string]bool, len(cards))
	for _, c := range cards {
		taken[c.Taxon.Name] = true
	}
	name := newTaxonName
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s %d", newTaxonName, i)
	}
	return name
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Metadata taxonomy"))
	b.WriteString("\n")

	if m.form != nil {
		b.WriteString(m.viewForm())
	} else {
		b.WriteString(m.viewList())
	}

	if n, ok := m.notes.Last(); ok {
		b.WriteString("\n")
		b.WriteString(m.styles.Status[n.Severity].Render(n.Text))
	}
	if m.taxa.Stale() {
		b.WriteString("\n")
		b.WriteString(m.styles.Status[types.SeverityWarning].Render("List may be out of date; press r to reload."))
	}
	return b.String()
}

func (m Model) viewList() string {
	v := m.editor.View()
	var b strings.Builder
	switch v.Mode {
	case editor.ModeLoading:
		for i := 0; i < v.Skeletons; i++ {
			b.WriteString(m.styles.Skeleton.Render("░░░░░░░░░░░░░░░░░░░░"))
			b.WriteString("\n")
		}
	case editor.ModeEmpty:
		b.WriteString(m.styles.Empty.Render(v.EmptyMessage))
		b.WriteString("\n")
	case editor.ModeList:
		for i, c := range v.Cards {
			b.WriteString(m.viewCard(c, i == m.cursor))
		}
	}
	b.WriteString(m.styles.Help.Render(
		"↑/↓ move  enter select  space expand  E/C expand/collapse all  K/J reorder  a add  d delete  r reload  q quit"))
	return b.String()
}

func (m Model) viewCard(c editor.Card, atCursor bool) string {
	line := fmt.Sprintf("%d. %s  [%s]", c.Taxon.Position+1, c.Taxon.Name, c.TypeName)
	if c.Selected {
		line = m.styles.Selected.Render(line)
	}
	prefix := "  "
	if atCursor {
		prefix = m.styles.Cursor.Render("> ")
	}
	out := prefix + line + "\n"
	if !c.Expanded {
		return out
	}

	details := []string{}
	if c.Taxon.Description != "" {
		details = append(details, c.Taxon.Description)
	}
	details = append(details,
		fmt.Sprintf("freeform: %t  one per engagement: %t", c.Taxon.Freeform, c.Taxon.OnePerEngagement))
	if len(c.Taxon.PresetValues) > 0 {
		details = append(details, "presets: "+strings.Join(c.Taxon.PresetValues, ", "))
	}
	if c.Taxon.FilterType != types.FilterNone {
		details = append(details, "filter: "+string(c.Taxon.FilterType))
	}
	for _, d := range details {
		out += m.styles.Detail.Render(d) + "\n"
	}
	return out
}
