package tui

import "github.com/charmbracelet/lipgloss"

// Palette entries adapt to light and dark terminals.
var (
	accent  = lipgloss.AdaptiveColor{Light: "163", Dark: "205"}
	subtle  = lipgloss.AdaptiveColor{Light: "250", Dark: "236"}
	muted   = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	success = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	danger  = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	warning = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
)

var (
	activeStepStyle   = lipgloss.NewStyle().Foreground(accent).Background(subtle).Padding(0, 1).Bold(true)
	inactiveStepStyle = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)

	titleStyle    = lipgloss.NewStyle().Foreground(accent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	groupStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	okStyle       = lipgloss.NewStyle().Foreground(success)
	dangerStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(warning).Italic(true)

	docStyle = lipgloss.NewStyle().Padding(0, 2)
)
