package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8CFF"}
	muted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
	good   = lipgloss.AdaptiveColor{Light: "#02A35B", Dark: "#3EE08F"}
	bad    = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	warn   = lipgloss.AdaptiveColor{Light: "#C57600", Dark: "#FFAF00"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(accent).
			Padding(0, 1).
			Bold(true)

	levelStyle = lipgloss.NewStyle().Foreground(muted).Padding(0, 1)

	barFilledStyle = lipgloss.NewStyle().Foreground(good)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(muted)

	dangerStyle  = lipgloss.NewStyle().Foreground(bad).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warn).Italic(true)

	docStyle = lipgloss.NewStyle().Padding(1, 2)
)
