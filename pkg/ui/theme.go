package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and styles the tree view renders with.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor

	// Focused styles the row that has keyboard focus.
	Focused lipgloss.Style
	// Selected styles rows whose node is selected.
	Selected lipgloss.Style
	// DropTarget styles the row a carried node would land on.
	DropTarget lipgloss.Style
}

// DefaultTheme builds the standard theme for renderer r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"},
		Secondary: lipgloss.AdaptiveColor{Light: "#2A7F9E", Dark: "#56B6C2"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#4A4A4A", Dark: "#BDBDBD"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B58900", Dark: "#E5C07B"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#3E4451"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#E06C75"},
		Success:   lipgloss.AdaptiveColor{Light: "#2E8B57", Dark: "#98C379"},
	}
	t.Focused = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E4E4F7", Dark: "#2C2C4A"}).
		Bold(true)
	t.Selected = r.NewStyle().Foreground(t.Primary)
	t.DropTarget = r.NewStyle().Underline(true).Foreground(t.Highlight)
	return t
}
