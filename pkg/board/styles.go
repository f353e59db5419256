package board

import "github.com/charmbracelet/lipgloss"

// Colors shared across the board views.
var (
	primaryColor = lipgloss.Color("212") // pink
	successColor = lipgloss.Color("42")  // green
	warningColor = lipgloss.Color("214") // orange
	errorColor   = lipgloss.Color("196") // red
	mutedColor   = lipgloss.Color("241") // gray
	cyanColor    = lipgloss.Color("45")  // cyan
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Underline(true).
			Padding(0, 1)

	markerStyle = lipgloss.NewStyle().
			Foreground(successColor)

	overdueStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	idStyle = lipgloss.NewStyle().
		Foreground(mutedColor)

	counterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	hintStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(cyanColor)

	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warningColor).
			Padding(1, 2)
)

// highlightRow applies the cursor highlight to a full-width row.
func highlightRow(content string, width int) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Width(width).
		Render(content)
}
