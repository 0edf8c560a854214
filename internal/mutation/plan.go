// Package mutation turns agent-proposed mutating tool calls into a single
// reviewable plan: typed, risk-scored items behind a strict execution state
// machine, so nothing touches the filesystem or spawns a process before an
// explicit user decision (or an auto-approve policy that never covers
// high-risk items).
package mutation

import (
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yubzen/maestro/internal/timeline"
)

// Type classifies one proposed mutating action.
type Type int

const (
	TypeWriteFile Type = iota
	TypePatchFile
	TypeRunBash
	TypeGitOp
	TypeOther
)

// String returns the wire name of the mutation type.
func (t Type) String() string {
	switch t {
	case TypeWriteFile:
		return "WRITE_FILE"
	case TypePatchFile:
		return "PATCH_FILE"
	case TypeRunBash:
		return "RUN_BASH"
	case TypeGitOp:
		return "GIT_OP"
	default:
		return "OTHER"
	}
}

// Item is one proposed mutating action awaiting approval. Risk is scored
// when the item is added and never rescored afterwards.
type Item struct {
	Type           Type
	Label          string
	Target         string
	Preview        string
	Risk           Risk
	CanAutoApply   bool
	SourceToolCall *timeline.ToolCall
	WorkingDir     string
	CommandNotes   []string
}

// Plan is the reviewable unit for one agent turn. State mirrors the
// execution state manager at the time of the last transition.
type Plan struct {
	ID           string
	Summary      string
	Items        []Item
	CreatedAt    time.Time
	State        State
	AutoApproved bool
}

// HighRiskItems returns the items scored HIGH.
func (p Plan) HighRiskItems() []Item { return p.itemsWithRisk(RiskHigh) }

// MediumRiskItems returns the items scored MED.
func (p Plan) MediumRiskItems() []Item { return p.itemsWithRisk(RiskMed) }

// LowRiskItems returns the items scored LOW.
func (p Plan) LowRiskItems() []Item { return p.itemsWithRisk(RiskLow) }

func (p Plan) itemsWithRisk(r Risk) []Item {
	var out []Item
	for _, item := range p.Items {
		if item.Risk == r {
			out = append(out, item)
		}
	}
	return out
}

// EncodeSummary renders the plan as YAML for the confirmation UI.
func (p Plan) EncodeSummary() (string, error) {
	type summaryItem struct {
		Action  string   `yaml:"action"`
		Target  string   `yaml:"target"`
		Risk    string   `yaml:"risk"`
		Workdir string   `yaml:"workdir,omitempty"`
		Notes   []string `yaml:"notes,omitempty"`
	}
	doc := struct {
		Plan    string        `yaml:"plan"`
		Summary string        `yaml:"summary,omitempty"`
		Items   []summaryItem `yaml:"items"`
	}{
		Plan:    p.ID,
		Summary: p.Summary,
	}
	for _, item := range p.Items {
		doc.Items = append(doc.Items, summaryItem{
			Action:  item.Label,
			Target:  item.Target,
			Risk:    item.Risk.String(),
			Workdir: item.WorkingDir,
			Notes:   item.CommandNotes,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ErrEmptyPlan is returned by Build when no items were added. Building an
// empty plan is a programmer error, never a silent no-op.
var ErrEmptyPlan = errors.New("mutation plan must have at least one item")

// ItemOption tweaks one item at AddItem time.
type ItemOption func(*Item)

// WithToolCall attaches the originating tool call descriptor.
func WithToolCall(call timeline.ToolCall) ItemOption {
	return func(i *Item) { i.SourceToolCall = &call }
}

// WithWorkingDir records the directory a command item runs in.
func WithWorkingDir(dir string) ItemOption {
	return func(i *Item) { i.WorkingDir = dir }
}

// WithAutoApply marks the item as eligible for the auto-approve policy.
func WithAutoApply() ItemOption {
	return func(i *Item) { i.CanAutoApply = true }
}

// Builder accumulates risk-scored items for one plan.
type Builder struct {
	classifier RiskClassifier
	summary    string
	items      []Item
	now        func() time.Time
}

// BuilderOption adjusts a builder at construction.
type BuilderOption func(*Builder)

// WithClassifier swaps the risk classifier.
func WithClassifier(c RiskClassifier) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.classifier = c
		}
	}
}

// WithBuilderClock replaces the wall clock, for tests.
func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a builder using the default pattern classifier.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		classifier: NewPatternClassifier(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddItem appends one risk-scored item. Scoring happens here, not at Build,
// so an item keeps its risk even when inspected individually later. Command
// items additionally get a working directory and family notes for the
// confirmation UI.
func (b *Builder) AddItem(t Type, target, preview string, opts ...ItemOption) {
	item := Item{
		Type:    t,
		Label:   itemLabel(t, target),
		Target:  target,
		Preview: preview,
		Risk:    b.classifier.Assess(t, target),
	}
	for _, opt := range opts {
		opt(&item)
	}
	if t == TypeRunBash || t == TypeGitOp {
		if item.Preview == "" {
			item.Preview = truncateCommand(target)
		}
		item.CommandNotes = commandNotes(target)
	}
	b.items = append(b.items, item)
}

// SetSummary sets the human summary shown above the item list.
func (b *Builder) SetSummary(summary string) {
	b.summary = summary
}

// HasItems reports whether anything was added yet.
func (b *Builder) HasItems() bool {
	return len(b.items) > 0
}

// ItemCount returns the number of items added so far.
func (b *Builder) ItemCount() int {
	return len(b.items)
}

// Build freezes the item list into a plan in PREVIEW_READY state. It fails
// loudly with ErrEmptyPlan when nothing was added.
func (b *Builder) Build() (Plan, error) {
	if len(b.items) == 0 {
		return Plan{}, ErrEmptyPlan
	}
	items := make([]Item, len(b.items))
	copy(items, b.items)
	return Plan{
		ID:        "plan_" + uuid.NewString(),
		Summary:   b.summary,
		Items:     items,
		CreatedAt: b.now(),
		State:     StatePreviewReady,
	}, nil
}

// Reset discards accumulated items so the builder can serve the next turn.
func (b *Builder) Reset() {
	b.items = nil
	b.summary = ""
}

func itemLabel(t Type, target string) string {
	switch t {
	case TypeWriteFile:
		return "Write " + path.Base(target)
	case TypePatchFile:
		return "Edit " + path.Base(target)
	case TypeRunBash:
		return "Run: " + truncateCommand(target)
	case TypeGitOp:
		return "Git: " + truncateCommand(target)
	default:
		return target
	}
}
