package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant carried by an Event.
type Kind int

const (
	KindUserMessage Kind = iota
	KindAssistantMessage
	KindAssistantStage
	KindToolInvocation
	KindToolResult
	KindDiffPreview
	KindSystemNotice
)

// String returns the wire name of the event kind.
func (k Kind) String() string {
	switch k {
	case KindUserMessage:
		return "user_message"
	case KindAssistantMessage:
		return "assistant_message"
	case KindAssistantStage:
		return "assistant_stage"
	case KindToolInvocation:
		return "tool_invocation"
	case KindToolResult:
		return "tool_result"
	case KindDiffPreview:
		return "diff_preview"
	case KindSystemNotice:
		return "system_notice"
	default:
		return "unknown"
	}
}

// Payload is the closed set of event variants. Each variant carries its own
// typed data; consumers switch on the concrete type rather than inspecting
// loosely typed maps.
type Payload interface {
	Kind() Kind
}

// ToolCall describes one tool invocation requested by the assistant.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// InvocationStatus tracks the visible progress of a tool call.
type InvocationStatus string

const (
	StatusRunning   InvocationStatus = "running"
	StatusCompleted InvocationStatus = "completed"
	StatusFailed    InvocationStatus = "failed"
)

// NoticeLevel is the severity of a system notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// UserMessage is one message typed by the user.
type UserMessage struct {
	Content string
}

func (UserMessage) Kind() Kind { return KindUserMessage }

// AssistantMessage is the assistant's response text for the current turn,
// plus any tool calls it proposed alongside it.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
}

func (AssistantMessage) Kind() Kind { return KindAssistantMessage }

// AssistantStage is a short progress notice ("analyzing", "working", ...).
// Only the latest stage per turn is shown.
type AssistantStage struct {
	Stage       string
	Description string
}

func (AssistantStage) Kind() Kind { return KindAssistantStage }

// ToolInvocation announces a tool call starting or changing status.
type ToolInvocation struct {
	Call     ToolCall
	Status   InvocationStatus
	Duration time.Duration
}

func (ToolInvocation) Kind() Kind { return KindToolInvocation }

// ToolResult reports the outcome of a tool call. It correlates with the
// earlier invocation through Call.ID; the invocation event itself is never
// mutated.
type ToolResult struct {
	Call     ToolCall
	Success  bool
	Output   string
	Error    string
	Duration time.Duration
}

func (ToolResult) Kind() Kind { return KindToolResult }

// DiffPreview carries a precomputed unified diff for one file.
type DiffPreview struct {
	Path    string
	Added   int
	Removed int
	Diff    string
}

func (DiffPreview) Kind() Kind { return KindDiffPreview }

// SystemNotice is an out-of-band message shown in the transcript.
type SystemNotice struct {
	Level   NoticeLevel
	Message string
}

func (SystemNotice) Kind() Kind { return KindSystemNotice }

// Event is the immutable envelope queued for rendering. Timestamp is set at
// acceptance by the pipeline, not at construction, so the deduplication
// window stays meaningful under scheduling jitter.
type Event struct {
	ID        string
	Timestamp time.Time
	Payload   Payload
}

// Kind returns the payload variant, or -1 for a malformed envelope.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return Kind(-1)
	}
	return e.Payload.Kind()
}

// NewEvent wraps a payload in a fresh envelope with a unique ID. The
// timestamp stays zero until the pipeline accepts the event.
func NewEvent(p Payload) Event {
	return Event{
		ID:      uuid.NewString(),
		Payload: p,
	}
}
