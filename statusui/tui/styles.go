package tui

import "github.com/charmbracelet/lipgloss"

// Styles for the status viewer, keyed to the platform's brand colors
var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1DA1F2")).
		MarginTop(1).
		MarginBottom(1)

	StatusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#17BF63"))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#E0245E"))

	InfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8899A6"))

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#657786")).
		Padding(0, 2)
)
