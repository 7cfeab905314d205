// ABOUTME: Compact metric block widget for dashboard displays
// ABOUTME: Title-in-border panel with a large value and a muted subtitle

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/blogpanel/internal/tui/icons"
	"github.com/markalston/blogpanel/internal/tui/styles"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: styles.Muted,
		TitleColor:  styles.Primary,
		ValueColor:  styles.Text,
	}
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title string, value string, subtitle string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = 24
	}

	// Inner width excludes the border and two columns of padding
	innerWidth := config.Width - 4

	titleStr := truncate(fmt.Sprintf("%s %s", icon.String(), title), innerWidth-1)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	topBorder := borderStyle.Render("┌─ ") + titleStyle.Render(titleStr) +
		borderStyle.Render(" "+strings.Repeat("─", max(0, config.Width-5-lipgloss.Width(titleStr)))+"┐")

	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	line := func(s string) string {
		pad := max(0, innerWidth-lipgloss.Width(s))
		return borderStyle.Render("│  ") + s + strings.Repeat(" ", pad) + borderStyle.Render("│")
	}

	bottomBorder := borderStyle.Render("└" + strings.Repeat("─", config.Width-2) + "┘")

	return strings.Join([]string{
		topBorder,
		line(valueStyle.Render(truncate(value, innerWidth))),
		line(subtitleStyle.Render(truncate(subtitle, innerWidth))),
		bottomBorder,
	}, "\n")
}

// CountBlock renders a count metric. A negative count renders as a dash, and
// a count that reached limit renders as "limit+" since more may exist.
func CountBlock(icon icons.Icon, title string, count, limit int, label string, config MetricBlockConfig) string {
	return MetricBlock(icon, title, CountLabel(count, limit), label, config)
}

// CountLabel formats count, capped at limit when limit > 0
func CountLabel(count, limit int) string {
	switch {
	case count < 0:
		return "-"
	case limit > 0 && count >= limit:
		return fmt.Sprintf("%d+", limit)
	default:
		return fmt.Sprintf("%d", count)
	}
}

// truncate shortens a string to maxLen display cells with ellipsis if needed
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:max(0, maxLen)])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
