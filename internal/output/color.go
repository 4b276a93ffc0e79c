// Package output provides styled terminal rendering helpers for deproductify.
package output

import "github.com/charmbracelet/lipgloss"

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorCalm is used for low productivity, which is the goal.
	ColorCalm = lipgloss.Color("#66bb6a")

	// ColorAlarm is used for scores at or over the threshold.
	ColorAlarm = lipgloss.Color("#ef5350")

	// ColorWarning is used for rising scores.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	StyleHeader  lipgloss.Style
	StyleCalm    lipgloss.Style
	StyleAlarm   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style
	StyleLabel   lipgloss.Style
	StyleBanner  lipgloss.Style
)

func init() {
	SetNoColor(false)
}

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally by rebuilding the
// package-level styles.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleCalm = plain
		StyleAlarm = plain
		StyleWarning = plain
		StyleMuted = plain
		StyleBold = plain
		StyleLabel = plain.Width(14)
		StyleBanner = plain.Padding(0, 2)
		return
	}

	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleCalm = lipgloss.NewStyle().Foreground(ColorCalm)
	StyleAlarm = lipgloss.NewStyle().Foreground(ColorAlarm).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleLabel = lipgloss.NewStyle().Width(14)
	StyleBanner = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ColorAlarm).
		Foreground(ColorAlarm).
		Bold(true).
		Padding(0, 2)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}
