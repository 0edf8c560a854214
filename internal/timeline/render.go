package timeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	stageStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	activityStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	diffHeaderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	diffAddStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	diffDelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeInfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeWarnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	noticeErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	truncStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	debugStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

const (
	// DefaultSideBySideMinWidth is the narrowest render surface that still
	// gets two-column diffs.
	DefaultSideBySideMinWidth = 100
	// DefaultMaxBodyLines bounds how much of a message body is rendered.
	DefaultMaxBodyLines = 1000
	// DefaultMaxDiffLines bounds rendered diff lines per file.
	DefaultMaxDiffLines = 20

	sideBySideColWidth = 40
)

// Renderer turns the group list into the transcript text handed to the
// render surface. It is a pure formatter: the same groups, width, and flags
// always produce byte-identical output.
type Renderer struct {
	Debug              bool
	Width              int
	SideBySideMinWidth int
	MaxBodyLines       int
	MaxDiffLines       int
}

// NewRenderer returns a renderer with the default thresholds.
func NewRenderer() *Renderer {
	return &Renderer{
		SideBySideMinWidth: DefaultSideBySideMinWidth,
		MaxBodyLines:       DefaultMaxBodyLines,
		MaxDiffLines:       DefaultMaxDiffLines,
	}
}

// Render produces the full transcript for the given turns.
func (r *Renderer) Render(groups []*Group) string {
	var blocks []string
	for _, group := range groups {
		if group == nil {
			continue
		}
		blocks = append(blocks, r.renderGroup(group))
	}
	return strings.Join(blocks, "\n\n")
}

func (r *Renderer) renderGroup(group *Group) string {
	var lines []string

	if r.Debug {
		lines = append(lines, debugStyle.Render(fmt.Sprintf("[%s]", group.ID)))
	}

	lines = append(lines, "┌─ "+userLabelStyle.Render("User"))
	content := ""
	if group.UserMessage != nil {
		if um, ok := group.UserMessage.Payload.(UserMessage); ok {
			content = um.Content
		}
	}
	lines = append(lines, r.bodyLines(content)...)
	lines = append(lines, "└"+strings.Repeat("─", 26))

	if !r.hasAssistantContent(group) {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "┌─ "+assistantLabelStyle.Render("Assistant"))

	if group.AssistantStage != nil {
		if stage, ok := group.AssistantStage.Payload.(AssistantStage); ok {
			lines = append(lines, "│  "+stageStyle.Render(stageText(stage)))
		}
	}

	lines = append(lines, r.renderToolActivity(group.ToolActivity)...)
	lines = append(lines, r.renderDiffPreviews(group.DiffPreviews)...)
	lines = append(lines, r.renderNotices(group.SystemNotices)...)

	if group.AssistantMessage != nil {
		if am, ok := group.AssistantMessage.Payload.(AssistantMessage); ok {
			lines = append(lines, "│")
			lines = append(lines, r.bodyLines(am.Content)...)
		}
	}

	lines = append(lines, "└"+strings.Repeat("─", 26))
	return strings.Join(lines, "\n")
}

func (r *Renderer) hasAssistantContent(group *Group) bool {
	return group.AssistantMessage != nil ||
		group.AssistantStage != nil ||
		len(group.ToolActivity) > 0 ||
		len(group.DiffPreviews) > 0 ||
		len(group.SystemNotices) > 0
}

// bodyLines renders message content inside the block border, truncating
// oversized bodies with an explicit marker instead of paying the full render
// cost.
func (r *Renderer) bodyLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	raw := strings.Split(content, "\n")

	limit := r.MaxBodyLines
	if limit <= 0 {
		limit = DefaultMaxBodyLines
	}
	shown := raw
	if len(raw) > limit {
		shown = raw[:limit]
	}

	out := make([]string, 0, len(shown)+1)
	for _, line := range shown {
		out = append(out, "│  "+line)
	}
	if hidden := len(raw) - len(shown); hidden > 0 {
		out = append(out, "│  "+truncStyle.Render(fmt.Sprintf("... %d more lines", hidden)))
	}
	return out
}

func stageText(stage AssistantStage) string {
	switch stage.Stage {
	case "preparing":
		return "Analyzing your request..."
	case "responding":
		return "Crafting response..."
	case "working":
		return fmt.Sprintf("Executing: %s...", stage.Description)
	default:
		return stage.Description
	}
}

// renderToolActivity collapses tool events into a count plus one-line status
// per item. Once results exist the section reads as an execution report.
func (r *Renderer) renderToolActivity(activity []Event) []string {
	if len(activity) == 0 {
		return nil
	}

	var lines []string
	lines = append(lines, "│")
	lines = append(lines, "│  "+activityStyle.Render(fmt.Sprintf("▸ Tool activity (%d operations)", len(activity))))

	for _, ev := range activity {
		switch p := ev.Payload.(type) {
		case ToolInvocation:
			if !r.Debug {
				continue
			}
			lines = append(lines, "│     "+activityStyle.Render(fmt.Sprintf("%s → %s", p.Call.Name, p.Status)))
		case ToolResult:
			mark := "✓"
			style := noticeInfoStyle
			if !p.Success {
				mark = "✗"
				style = noticeErrorStyle
			}
			dur := ""
			if p.Duration > 0 {
				dur = fmt.Sprintf(" (%dms)", p.Duration.Milliseconds())
			}
			lines = append(lines, "│  "+style.Render(fmt.Sprintf("%s %s%s", mark, resultLabel(p), dur)))
			if !p.Success && p.Error != "" {
				lines = append(lines, "│    "+noticeErrorStyle.Render("error: "+firstLine(p.Error)))
			}
		}
	}
	return lines
}

// resultLabel renders a short human description of what a tool result did.
func resultLabel(res ToolResult) string {
	args := res.Call.Arguments
	switch res.Call.Name {
	case "bash", "run_command":
		if cmd, ok := args["command"].(string); ok {
			return "Ran: " + cmd
		}
	case "create_file", "write_file":
		if path, ok := args["path"].(string); ok {
			return "Created: " + path
		}
	case "edit_file", "str_replace_editor", "patch_file":
		if path, ok := args["path"].(string); ok {
			return "Edited: " + path
		}
	}
	return res.Call.Name
}

func (r *Renderer) renderDiffPreviews(previews []Event) []string {
	if len(previews) == 0 {
		return nil
	}

	var lines []string
	for _, ev := range previews {
		diff, ok := ev.Payload.(DiffPreview)
		if !ok {
			continue
		}
		lines = append(lines, "│")
		lines = append(lines, "│  "+diffHeaderStyle.Render(fmt.Sprintf("%s (+%d -%d)", diff.Path, diff.Added, diff.Removed)))
		if diff.Diff == "" {
			continue
		}
		if r.Width >= r.minSideBySideWidth() {
			lines = append(lines, r.sideBySideDiff(diff.Diff)...)
		} else {
			lines = append(lines, r.stackedDiff(diff.Diff)...)
		}
	}
	return lines
}

func (r *Renderer) minSideBySideWidth() int {
	if r.SideBySideMinWidth > 0 {
		return r.SideBySideMinWidth
	}
	return DefaultSideBySideMinWidth
}

func (r *Renderer) maxDiffLines() int {
	if r.MaxDiffLines > 0 {
		return r.MaxDiffLines
	}
	return DefaultMaxDiffLines
}

func (r *Renderer) stackedDiff(diff string) []string {
	raw := strings.Split(diff, "\n")
	limit := r.maxDiffLines()

	var lines []string
	for i, line := range raw {
		if i >= limit {
			lines = append(lines, "│    "+truncStyle.Render(fmt.Sprintf("... %d more lines", len(raw)-limit)))
			break
		}
		switch {
		case strings.HasPrefix(line, "+"):
			lines = append(lines, "│    "+diffAddStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			lines = append(lines, "│    "+diffDelStyle.Render(line))
		default:
			lines = append(lines, "│    "+line)
		}
	}
	return lines
}

// sideBySideDiff lays removed and added lines out as two aligned columns.
func (r *Renderer) sideBySideDiff(diff string) []string {
	raw := strings.Split(diff, "\n")
	limit := r.maxDiffLines()
	shown := raw
	if len(raw) > limit {
		shown = raw[:limit]
	}

	var oldLines, newLines []string
	for _, line := range shown {
		switch {
		case strings.HasPrefix(line, "-"):
			oldLines = append(oldLines, strings.TrimPrefix(line, "-"))
			newLines = append(newLines, "")
		case strings.HasPrefix(line, "+"):
			oldLines = append(oldLines, "")
			newLines = append(newLines, strings.TrimPrefix(line, "+"))
		default:
			oldLines = append(oldLines, line)
			newLines = append(newLines, line)
		}
	}

	col := sideBySideColWidth
	var lines []string
	lines = append(lines, "│    "+pad("old (-)", col)+" │ "+pad("new (+)", col))
	lines = append(lines, "│    "+strings.Repeat("─", col)+"─┼─"+strings.Repeat("─", col))
	for i := range oldLines {
		left := pad(oldLines[i], col)
		right := pad(newLines[i], col)
		if strings.TrimSpace(oldLines[i]) != "" && oldLines[i] != newLines[i] {
			left = diffDelStyle.Render(left)
		}
		if strings.TrimSpace(newLines[i]) != "" && oldLines[i] != newLines[i] {
			right = diffAddStyle.Render(right)
		}
		lines = append(lines, "│    "+left+" │ "+right)
	}
	if hidden := len(raw) - len(shown); hidden > 0 {
		lines = append(lines, "│    "+truncStyle.Render(fmt.Sprintf("... %d more lines", hidden)))
	}
	return lines
}

// pad truncates or right-fills a cell to the column width, display-width
// aware so wide runes keep the columns aligned.
func pad(s string, width int) string {
	s = runewidth.Truncate(s, width, "…")
	return runewidth.FillRight(s, width)
}

func (r *Renderer) renderNotices(notices []Event) []string {
	if len(notices) == 0 {
		return nil
	}
	var lines []string
	lines = append(lines, "│")
	for _, ev := range notices {
		notice, ok := ev.Payload.(SystemNotice)
		if !ok {
			continue
		}
		style := noticeInfoStyle
		switch notice.Level {
		case NoticeWarning:
			style = noticeWarnStyle
		case NoticeError:
			style = noticeErrorStyle
		}
		lines = append(lines, "│  "+style.Render(firstLine(notice.Message)))
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
