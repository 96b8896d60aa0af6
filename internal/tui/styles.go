package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(10)
	valueStyle = lipgloss.NewStyle().Bold(true)

	powerOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	powerOffStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)

	panelStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
)
