package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// Palette.
var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6b7689")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles holds every style the editor renders with.
type Styles struct {
	Title    lipgloss.Style
	Card     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Detail   lipgloss.Style
	Skeleton lipgloss.Style
	Empty    lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	FieldErr lipgloss.Style
	Help     lipgloss.Style
	Status   map[types.Severity]lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1),
		Card:     lipgloss.NewStyle().PaddingLeft(2),
		Cursor:   lipgloss.NewStyle().Foreground(colorAccent),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Detail:   lipgloss.NewStyle().PaddingLeft(6).Foreground(colorMuted),
		Skeleton: lipgloss.NewStyle().PaddingLeft(2).Foreground(colorMuted),
		Empty:    lipgloss.NewStyle().Italic(true).Foreground(colorMuted).PaddingLeft(2),
		Label:    lipgloss.NewStyle().Width(14).Foreground(colorMuted),
		Focused:  lipgloss.NewStyle().Width(14).Bold(true).Foreground(colorAccent),
		FieldErr: lipgloss.NewStyle().PaddingLeft(14).Foreground(colorError),
		Help:     lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1),
		Status: map[types.Severity]lipgloss.Style{
			types.SeveritySuccess: lipgloss.NewStyle().Foreground(colorAccent),
			types.SeverityInfo:    lipgloss.NewStyle().Foreground(colorInfo),
			types.SeverityWarning: lipgloss.NewStyle().Foreground(colorWarning),
			types.SeverityError:   lipgloss.NewStyle().Foreground(colorError),
		},
	}
}
