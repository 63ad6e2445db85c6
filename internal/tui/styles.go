package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1)

	sourceStyles = map[string]lipgloss.Style{
		"csv":          lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"calendar":     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		"mail":         lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		"card-service": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

// Error renders msg the way the TUI shows failures.
func Error(msg string) string {
	return errorStyle.Render("Error: ") + msg
}

// Success renders a confirmation line.
func Success(msg string) string {
	return successStyle.Render(msg)
}
