package timeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGroups(t *testing.T, payloads ...Payload) []*Group {
	t.Helper()
	g := NewGrouper()
	for _, p := range payloads {
		g.Process(NewEvent(p))
	}
	return g.Groups()
}

func TestRendererIsIdempotent(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t,
		UserMessage{Content: "fix the bug"},
		AssistantStage{Stage: "working", Description: "npm test"},
		ToolResult{Call: ToolCall{Name: "bash", Arguments: map[string]any{"command": "npm test"}}, Success: true},
		AssistantMessage{Content: "done"},
	)

	r := NewRenderer()
	r.Width = 80
	first := r.Render(groups)
	second := r.Render(groups)
	require.Equal(t, first, second, "render must be byte-identical on an unchanged group list")
}

func TestRendererShowsUserAndAssistantBlocks(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t,
		UserMessage{Content: "hello"},
		AssistantMessage{Content: "hi there"},
	)

	out := NewRenderer().Render(groups)
	assert.Contains(t, out, "User")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Assistant")
	assert.Contains(t, out, "hi there")
}

func TestRendererOmitsAssistantBlockWhenEmpty(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t, UserMessage{Content: "just me"})
	out := NewRenderer().Render(groups)
	assert.NotContains(t, out, "Assistant")
}

func TestRendererTruncatesLargeBodies(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	groups := buildGroups(t,
		UserMessage{Content: "dump"},
		AssistantMessage{Content: b.String()},
	)

	r := NewRenderer()
	r.MaxBodyLines = 10
	out := r.Render(groups)
	assert.Contains(t, out, "more lines")
	assert.NotContains(t, out, "line 39")
}

func TestRendererDiffLayoutFollowsWidth(t *testing.T) {
	t.Parallel()

	diff := "-old line\n+new line"
	groups := buildGroups(t,
		UserMessage{Content: "edit"},
		DiffPreview{Path: "a.ts", Added: 1, Removed: 1, Diff: diff},
	)

	narrow := NewRenderer()
	narrow.Width = 80
	assert.NotContains(t, narrow.Render(groups), "old (-)", "narrow surfaces get stacked diffs")

	wide := NewRenderer()
	wide.Width = 120
	out := wide.Render(groups)
	assert.Contains(t, out, "old (-)")
	assert.Contains(t, out, "new (+)")
}

func TestRendererCollapsesToolActivity(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t,
		UserMessage{Content: "go"},
		ToolInvocation{Call: ToolCall{Name: "bash"}, Status: StatusRunning},
		ToolInvocation{Call: ToolCall{Name: "write_file"}, Status: StatusRunning},
	)

	plain := NewRenderer().Render(groups)
	assert.Contains(t, plain, "Tool activity (2 operations)")
	assert.NotContains(t, plain, "bash → running")

	dbg := NewRenderer()
	dbg.Debug = true
	out := dbg.Render(groups)
	assert.Contains(t, out, "bash → running")
	assert.Contains(t, out, "[group_")
}

func TestRendererExecutionReportShowsFailures(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t,
		UserMessage{Content: "go"},
		ToolResult{
			Call:    ToolCall{Name: "bash", Arguments: map[string]any{"command": "npm test"}},
			Success: false,
			Error:   "exit status 1",
		},
	)

	out := NewRenderer().Render(groups)
	assert.Contains(t, out, "✗ Ran: npm test")
	assert.Contains(t, out, "error: exit status 1")
}

func TestRendererNoticeSeverities(t *testing.T) {
	t.Parallel()

	groups := buildGroups(t,
		UserMessage{Content: "go"},
		SystemNotice{Level: NoticeError, Message: "boom"},
		SystemNotice{Level: NoticeInfo, Message: "fyi"},
	)

	out := NewRenderer().Render(groups)
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "fyi")
}
