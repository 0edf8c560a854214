package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// wrapToWidth hard-wraps text for modal viewports. Blank lines survive and
// trailing padding from the style renderer is stripped so viewport widths
// stay honest.
func wrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	wrapper := lipgloss.NewStyle().Width(width)

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			out = append(out, "")
			continue
		}
		for _, wrapped := range strings.Split(wrapper.Render(line), "\n") {
			out = append(out, strings.TrimRight(wrapped, " "))
		}
	}
	return strings.Join(out, "\n")
}
