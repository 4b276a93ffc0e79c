package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ScoreBar renders a bar for a score in [0,1], colored by how close it is
// to the activation threshold.
// Example: "████████░░ 0.80"
func ScoreBar(score, threshold float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(score * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", ScoreStyle(score, threshold).Render(bar), StyleMuted.Render(fmt.Sprintf("%.2f", score)))
}

// ScoreStyle picks the style for a score: alarm at or over the threshold,
// warning from half the threshold, calm below.
func ScoreStyle(score, threshold float64) lipgloss.Style {
	switch {
	case threshold > 0 && score >= threshold:
		return StyleAlarm
	case threshold > 0 && score >= threshold/2:
		return StyleWarning
	default:
		return StyleCalm
	}
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// Banner renders the activation banner.
func Banner(title, body string) string {
	return StyleBanner.Render(title + "\n" + body)
}
