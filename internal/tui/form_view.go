package tui

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/taxa/internal/form"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Form input indexes, in tab order.
const (
	inputName = iota
	inputDescription
	inputType
	inputPresets
	inputFilter
	inputCount
)

var inputLabels = [inputCount]string{"Name", "Description", "Type", "Presets", "Filter"}

var inputFields = [inputCount]string{
	types.FieldName,
	types.FieldDescription,
	types.FieldDataType,
	types.FieldPresetValues,
	types.FieldFilterType,
}

func (m *Model) openForm() {
	fm, ok := form.ForSelected(m.taxa)
	if !ok {
		return
	}
	m.form = fm
	m.inputs = make([]textinput.Model, inputCount)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = types.MaxDescriptionLength
		m.inputs[i] = ti
	}
	m.inputs[inputName].CharLimit = types.MaxNameLength * 2
	m.loadInputs()
	m.focus = inputName
	m.inputs[m.focus].Focus()
}

func (m *Model) closeForm() {
	m.form = nil
	m.inputs = nil
	m.focus = 0
}

// loadInputs copies the form draft into the inputs.
func (m *Model) loadInputs() {
	d := m.form.Draft()
	m.inputs[inputName].SetValue(d.Name)
	m.inputs[inputDescription].SetValue(d.Description)
	m.inputs[inputType].SetValue(string(d.DataType))
	m.inputs[inputPresets].SetValue(strings.Join(d.PresetValues, ", "))
	m.inputs[inputFilter].SetValue(string(d.FilterType))
}

// applyInputs pushes the input values into the form. Unchanged values do
// not mark the form dirty.
func (m *Model) applyInputs() {
	m.form.SetName(m.inputs[inputName].Value())
	m.form.SetDescription(m.inputs[inputDescription].Value())
	m.form.SetDataType(types.DataType(strings.TrimSpace(m.inputs[inputType].Value())))
	m.form.SetPresetValues(splitList(m.inputs[inputPresets].Value()))
	m.form.SetFilterType(types.FilterType(strings.TrimSpace(m.inputs[inputFilter].Value())))
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "tab", "shift+tab":
		m.inputs[m.focus].Blur()
		step := 1
		if key == "shift+tab" {
			step = inputCount - 1
		}
		m.focus = (m.focus + step) % inputCount
		return m, m.inputs[m.focus].Focus()
	case "ctrl+f":
		m.applyInputs()
		m.form.SetFreeform(!m.form.Draft().Freeform)
		return m, nil
	case "ctrl+o":
		m.applyInputs()
		m.form.SetOnePerEngagement(!m.form.Draft().OnePerEngagement)
		return m, nil
	case form.KeySave, form.SubmitShortcut(runtime.GOOS), form.KeyCancel:
		if key != form.KeyCancel {
			m.applyInputs()
		}
		m.busy = true
		fm, ctx := m.form, m.ctx
		return m, func() tea.Msg {
			_, ok := fm.HandleKey(ctx, key)
			return submitDoneMsg{key: key, ok: ok}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) viewForm() string {
	var b strings.Builder
	errs := m.form.Errors()
	draft := m.form.Draft()
	caps := m.form.Capabilities()

	for i, ti := range m.inputs {
		label := m.styles.Label
		if i == m.focus {
			label = m.styles.Focused
		}
		b.WriteString(label.Render(inputLabels[i]))
		b.WriteString(ti.View())
		b.WriteString("\n")
		for _, fe := range errs {
			if fe.Field == inputFields[i] || (i == inputPresets && strings.HasPrefix(fe.Field, types.FieldPresetValues+"[")) {
				b.WriteString(m.styles.FieldErr.Render(fe.Message))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString(m.styles.Label.Render("Freeform"))
	b.WriteString(toggle(draft.Freeform, caps.Freeform))
	b.WriteString("\n")
	for _, fe := range errs {
		if fe.Field == types.FieldFreeform {
			b.WriteString(m.styles.FieldErr.Render(fe.Message) + "\n")
		}
	}
	b.WriteString(m.styles.Label.Render("One value"))
	b.WriteString(toggle(draft.OnePerEngagement, caps.OnePerEngagement))
	b.WriteString("\n")
	for _, fe := range errs {
		if fe.Field == types.FieldOnePerEngagement {
			b.WriteString(m.styles.FieldErr.Render(fe.Message) + "\n")
		}
	}

	b.WriteString(m.styles.Help.Render(fmt.Sprintf(
		"[%s]  tab next field  ctrl+f freeform  ctrl+o one value  %s or %s save  esc cancel",
		m.form.State(), form.KeySave, form.SubmitShortcut(runtime.GOOS))))
	return b.String()
}

func toggle(on, editable bool) string {
	s := "[ ]"
	if on {
		s = "[x]"
	}
	if !editable {
		s += " (fixed by type)"
	}
	return s
}
