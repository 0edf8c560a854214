package timeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurface struct {
	mu      sync.Mutex
	blocks  []string
	clears  int
	scrolls int
	width   int
}

func (s *stubSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = nil
	s.clears++
}

func (s *stubSurface) AppendBlock(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, text)
}

func (s *stubSurface) ScrollToEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls++
}

func (s *stubSurface) Width() int { return s.width }

func (s *stubSurface) content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		return ""
	}
	return s.blocks[len(s.blocks)-1]
}

type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (m *memorySink) RecordEvent(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memorySink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestPipelineAcceptedEventsReachTheSurface(t *testing.T) {
	t.Parallel()

	surface := &stubSurface{width: 80}
	p := NewPipeline(surface, Options{})

	_, ok := p.Add(UserMessage{Content: "fix bug"})
	require.True(t, ok)
	_, ok = p.Add(AssistantMessage{Content: "on it"})
	require.True(t, ok)

	p.Flush()

	out := surface.content()
	assert.Contains(t, out, "fix bug")
	assert.Contains(t, out, "on it")
	assert.Equal(t, 1, surface.scrolls)
}

func TestPipelineDeduplicatesToolInvocations(t *testing.T) {
	t.Parallel()

	surface := &stubSurface{width: 80}
	p := NewPipeline(surface, Options{})

	_, _ = p.Add(UserMessage{Content: "go"})
	inv := ToolInvocation{Call: ToolCall{ID: "c1", Name: "bash"}, Status: StatusRunning}
	_, first := p.Add(inv)
	_, second := p.Add(inv)
	_, third := p.Add(inv)

	require.True(t, first)
	assert.False(t, second)
	assert.False(t, third)

	p.Flush()
	assert.Contains(t, surface.content(), "Tool activity (1 operations)")

	stats := p.Stats()
	assert.Equal(t, uint64(4), stats.EventsProcessed)
	assert.Equal(t, uint64(2), stats.EventsAccepted)
	assert.Equal(t, uint64(2), stats.DedupHits)
}

func TestPipelineFlushRendersBatchOnce(t *testing.T) {
	t.Parallel()

	surface := &stubSurface{width: 80}
	p := NewPipeline(surface, Options{})

	for i := 0; i < 5; i++ {
		_, _ = p.Add(SystemNotice{Level: NoticeInfo, Message: "notice"})
	}
	p.Flush()

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.RenderCount)
	assert.Zero(t, stats.QueueDepth)
}

func TestPipelineStampsAcceptanceTimestamps(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubSurface{width: 80}, Options{})
	ev, ok := p.Add(UserMessage{Content: "hi"})
	require.True(t, ok)
	assert.False(t, ev.Timestamp.IsZero())
	assert.NotEmpty(t, ev.ID)
}

func TestPipelineRejectsNilPayload(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&stubSurface{width: 80}, Options{})
	_, ok := p.Add(nil)
	assert.False(t, ok)
}

func TestPipelineSinkSeesOnlyAcceptedEvents(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	p := NewPipeline(&stubSurface{width: 80}, Options{}, WithSink(sink))

	_, _ = p.Add(UserMessage{Content: "go"})
	inv := ToolInvocation{Call: ToolCall{Name: "bash"}, Status: StatusRunning}
	_, _ = p.Add(inv)
	_, _ = p.Add(inv) // suppressed

	assert.Equal(t, 2, sink.len())
}

func TestPipelineClearResetsTranscript(t *testing.T) {
	t.Parallel()

	surface := &stubSurface{width: 80}
	p := NewPipeline(surface, Options{})

	_, _ = p.Add(UserMessage{Content: "hello"})
	p.Flush()
	require.NotEmpty(t, surface.content())

	p.Clear()
	assert.Empty(t, surface.content())
	assert.Empty(t, p.Groups())
}
