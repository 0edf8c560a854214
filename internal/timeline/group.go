package timeline

import (
	"fmt"
	"time"
)

// Group is one conversational turn: a user message plus everything the
// assistant did before the next user message. A group is append-only while
// open and frozen once completed.
type Group struct {
	ID               string
	UserMessage      *Event
	AssistantMessage *Event
	AssistantStage   *Event
	ToolActivity     []Event
	DiffPreviews     []Event
	SystemNotices    []Event
	Results          []Event
	CreatedAt        time.Time
	Completed        bool
}

// Grouper folds the flat accepted-event stream into ordered turns. At most
// one group is open at any time.
type Grouper struct {
	groups  []*Group
	current *Group
	seq     int
}

// NewGrouper returns an empty grouper.
func NewGrouper() *Grouper {
	return &Grouper{}
}

// Process routes one accepted event into the open group, opening or closing
// groups as the rule table requires. Events of unknown kind are ignored by
// the caller before reaching here.
func (g *Grouper) Process(ev Event) {
	switch ev.Payload.(type) {
	case UserMessage:
		g.closeCurrent()
		g.open(&ev)
		return
	}

	if g.current == nil {
		// An assistant-side event before any user input: synthesize a turn
		// with an empty user message so nothing is dropped.
		g.open(nil)
	}

	switch ev.Payload.(type) {
	case AssistantMessage:
		g.current.AssistantMessage = &ev
		g.current.Results = append(g.current.Results, ev)
	case AssistantStage:
		g.current.AssistantStage = &ev
	case ToolInvocation, ToolResult:
		g.current.ToolActivity = append(g.current.ToolActivity, ev)
	case DiffPreview:
		g.current.DiffPreviews = append(g.current.DiffPreviews, ev)
	case SystemNotice:
		g.current.SystemNotices = append(g.current.SystemNotices, ev)
	}
}

func (g *Grouper) open(userMessage *Event) {
	g.seq++
	created := time.Now()
	id := fmt.Sprintf("group_%d", g.seq)
	if userMessage != nil {
		id = "group_" + userMessage.ID
		if !userMessage.Timestamp.IsZero() {
			created = userMessage.Timestamp
		}
	}
	g.current = &Group{
		ID:          id,
		UserMessage: userMessage,
		CreatedAt:   created,
	}
	g.groups = append(g.groups, g.current)
}

func (g *Grouper) closeCurrent() {
	if g.current != nil {
		g.current.Completed = true
		g.current = nil
	}
}

// Groups returns every turn in creation order, the open one last.
func (g *Grouper) Groups() []*Group {
	return g.groups
}

// Open returns the currently open group, or nil.
func (g *Grouper) Open() *Group {
	return g.current
}

// Clear resets the grouper to its initial empty state.
func (g *Grouper) Clear() {
	g.groups = nil
	g.current = nil
	g.seq = 0
}
