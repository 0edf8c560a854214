package mutation

import (
	"fmt"
	"strings"
)

// Limits for the human-readable plan preview.
const (
	previewMaxItems        = 6
	previewMaxContentLines = 5
)

// RenderPreview formats the plan as a numbered, risk-badged listing for the
// confirmation modal. Long plans and long per-item previews are truncated
// with a trailing count.
func (p Plan) RenderPreview() string {
	var b strings.Builder

	header := fmt.Sprintf("Plan: %d change(s)", len(p.Items))
	if p.Summary != "" {
		header = p.Summary
	}
	b.WriteString(header + "\n")

	shown := p.Items
	if len(shown) > previewMaxItems {
		shown = shown[:previewMaxItems]
	}
	for i, item := range shown {
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", i+1, item.Risk, item.Label)
		if item.Target != "" && !strings.Contains(item.Label, item.Target) {
			fmt.Fprintf(&b, "   target: %s\n", item.Target)
		}
		if item.WorkingDir != "" {
			fmt.Fprintf(&b, "   in: %s\n", item.WorkingDir)
		}
		for _, note := range item.CommandNotes {
			fmt.Fprintf(&b, "   note: %s\n", note)
		}
		b.WriteString(previewBody(item.Preview))
	}
	if hidden := len(p.Items) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "\n+%d more item(s)\n", hidden)
	}
	return strings.TrimRight(b.String(), "\n")
}

func previewBody(preview string) string {
	preview = strings.TrimRight(preview, "\n")
	if preview == "" {
		return ""
	}
	lines := strings.Split(preview, "\n")
	shown := lines
	if len(shown) > previewMaxContentLines {
		shown = shown[:previewMaxContentLines]
	}
	var b strings.Builder
	for _, line := range shown {
		b.WriteString("   │ " + line + "\n")
	}
	if hidden := len(lines) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "   │ ... %d more line(s)\n", hidden)
	}
	return b.String()
}
