package tui

import (
	"github.com/ashureev/docqa/internal/upload"
	"github.com/charmbracelet/lipgloss"
)

// Styles groups every lipgloss style the UI draws with.
type Styles struct {
	Title      lipgloss.Style
	Stats      lipgloss.Style
	Tab        lipgloss.Style
	ActiveTab  lipgloss.Style
	Help       lipgloss.Style
	Faint      lipgloss.Style
	Cursor     lipgloss.Style
	Button     lipgloss.Style
	ButtonOff  lipgloss.Style
	SourceTag  lipgloss.Style
	UserMsg    lipgloss.Style
	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	Score      lipgloss.Style
	Modal      lipgloss.Style
	Input      lipgloss.Style

	statusNeutral lipgloss.Style
	statusLoading lipgloss.Style
	statusSuccess lipgloss.Style
	statusError   lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F2"}
	muted := lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	green := lipgloss.AdaptiveColor{Light: "#1E8E3E", Dark: "#5BD17B"}
	red := lipgloss.AdaptiveColor{Light: "#C5221F", Dark: "#F28B82"}

	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Stats:      lipgloss.NewStyle().Foreground(muted),
		Tab:        lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		ActiveTab:  lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(accent),
		Help:       lipgloss.NewStyle().Foreground(muted),
		Faint:      lipgloss.NewStyle().Faint(true),
		Cursor:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Button:     lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent),
		ButtonOff:  lipgloss.NewStyle().Padding(0, 2).Foreground(muted).Background(lipgloss.AdaptiveColor{Light: "#E4E4E4", Dark: "#303030"}),
		SourceTag:  lipgloss.NewStyle().Padding(0, 1).Foreground(accent).Background(lipgloss.AdaptiveColor{Light: "#ECEBFD", Dark: "#2B2A4C"}),
		UserMsg:    lipgloss.NewStyle().Bold(true),
		Panel:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Score:      lipgloss.NewStyle().Foreground(green),
		Modal:      lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(accent).Padding(1, 3),
		Input:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),

		statusNeutral: lipgloss.NewStyle(),
		statusLoading: lipgloss.NewStyle().Foreground(accent),
		statusSuccess: lipgloss.NewStyle().Foreground(green),
		statusError:   lipgloss.NewStyle().Foreground(red).Bold(true),
	}
}

// Status returns the style for an upload status kind.
func (s Styles) Status(kind upload.StatusKind) lipgloss.Style {
	switch kind {
	case upload.StatusLoading:
		return s.statusLoading
	case upload.StatusSuccess:
		return s.statusSuccess
	case upload.StatusError:
		return s.statusError
	default:
		return s.statusNeutral
	}
}
