package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Underline(true)

	turnStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Border(lipgloss.HiddenBorder(), false, false, false, true)
	selectedTurnStyle = turnStyle.
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("#7D56F4"))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5C5C5C"))
	recordingInputStyle = inputStyle.BorderForeground(lipgloss.Color("#FF5F87"))
)
