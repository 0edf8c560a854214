package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yubzen/maestro/internal/timeline"
)

// ItemResult is the outcome of executing one plan item.
type ItemResult struct {
	Item     Item
	Success  bool
	Output   string
	Error    string
	Duration time.Duration
}

// Report summarizes one full plan execution.
type Report struct {
	PlanID   string
	Summary  string
	Results  []ItemResult
	Duration time.Duration
	State    State
}

// ToolExecutor performs one plan item. It is invoked strictly after
// confirmation (or auto-approve) and strictly in plan order.
type ToolExecutor interface {
	Execute(ctx context.Context, item Item) ItemResult
}

// Confirmer asks the user to approve or reject a plan. Request resolves
// exactly once per invocation.
type Confirmer interface {
	Request(ctx context.Context, prompt string, options []string) (string, error)
}

// EventEmitter feeds result events back into the render pipeline.
// *timeline.Pipeline satisfies it.
type EventEmitter interface {
	Add(p timeline.Payload) (timeline.Event, bool)
}

// ReportSink observes the final report of every Run, including cancelled
// and aborted plans, typically for persistence.
type ReportSink interface {
	RecordReport(Report)
}

// Confirmation option values used by the runner.
const (
	OptionApply  = "yes"
	OptionCancel = "no"
)

// ErrPlanCancelled is returned when the user rejects the plan. Nothing has
// executed when this is returned.
var ErrPlanCancelled = errors.New("plan cancelled by user")

// Runner drives one plan end to end: confirmation, ordered execution,
// result events, report.
type Runner struct {
	states      *StateManager
	exec        ToolExecutor
	confirm     Confirmer
	events      EventEmitter
	reports     ReportSink
	stopOnError bool
}

// RunnerOption adjusts a runner at construction.
type RunnerOption func(*Runner)

// WithEmitter routes tool results and notices into the pipeline.
func WithEmitter(e EventEmitter) RunnerOption {
	return func(r *Runner) { r.events = e }
}

// WithStopOnError aborts the plan on the first failed item instead of
// continuing with the remaining ones.
func WithStopOnError() RunnerOption {
	return func(r *Runner) { r.stopOnError = true }
}

// WithReportSink records every final report, however the run ended.
func WithReportSink(s ReportSink) RunnerOption {
	return func(r *Runner) { r.reports = s }
}

// NewRunner wires a runner onto the state manager and collaborators.
func NewRunner(states *StateManager, exec ToolExecutor, confirm Confirmer, opts ...RunnerOption) *Runner {
	r := &Runner{
		states:  states,
		exec:    exec,
		confirm: confirm,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the plan. The state machine must be in PREVIEW_READY.
// Execution never starts before the confirmation (or auto-approve) resolves,
// so a cancelled plan has zero side effects. A failed item surfaces as a
// tool_result event and does not abort the remaining items unless the runner
// was built with WithStopOnError.
func (r *Runner) Run(ctx context.Context, plan Plan) (Report, error) {
	if r == nil || r.states == nil {
		return Report{}, errors.New("runner is not initialized")
	}
	report := Report{PlanID: plan.ID, Summary: plan.Summary}
	start := time.Now()
	defer func() {
		if r.reports != nil {
			r.reports.RecordReport(report)
		}
	}()

	if r.states.CanAutoApply(plan) {
		plan.AutoApproved = true
		if err := r.states.TransitionWithPlan(StateExecuting, &plan); err != nil {
			return report, err
		}
		r.notice(timeline.NoticeInfo, fmt.Sprintf("Auto-approved %d change(s)", len(plan.Items)))
	} else {
		if err := r.states.TransitionWithPlan(StatePendingConfirmation, &plan); err != nil {
			return report, err
		}
		approved, err := r.requestConfirmation(ctx, plan)
		if err != nil {
			_ = r.states.Transition(StateError)
			report.State = r.states.State()
			return report, err
		}
		if !approved {
			_ = r.states.Transition(StateDone)
			report.State = r.states.State()
			report.Duration = time.Since(start)
			r.notice(timeline.NoticeInfo, "Plan cancelled, no changes applied")
			return report, ErrPlanCancelled
		}
		if err := r.states.Transition(StateExecuting); err != nil {
			return report, err
		}
	}

	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			_ = r.states.Transition(StateError)
			report.State = r.states.State()
			report.Duration = time.Since(start)
			return report, err
		}

		result := r.exec.Execute(ctx, item)
		result.Item = item
		report.Results = append(report.Results, result)
		r.emitResult(item, result)

		if !result.Success && r.stopOnError {
			_ = r.states.Transition(StateError)
			report.State = r.states.State()
			report.Duration = time.Since(start)
			return report, fmt.Errorf("plan aborted: %s failed: %s", item.Label, result.Error)
		}
	}

	if err := r.states.Transition(StateDone); err != nil {
		return report, err
	}
	report.State = r.states.State()
	report.Duration = time.Since(start)
	return report, nil
}

func (r *Runner) requestConfirmation(ctx context.Context, plan Plan) (bool, error) {
	if r.confirm == nil {
		return false, errors.New("no confirmer configured")
	}
	prompt := fmt.Sprintf("Apply %d change(s)?", len(plan.Items))
	if high := len(plan.HighRiskItems()); high > 0 {
		prompt = fmt.Sprintf("Apply %d change(s)? %d high-risk", len(plan.Items), high)
	}
	choice, err := r.confirm.Request(ctx, prompt, []string{OptionApply, OptionCancel})
	if err != nil {
		return false, err
	}
	return choice == OptionApply, nil
}

func (r *Runner) emitResult(item Item, result ItemResult) {
	if r.events == nil {
		return
	}
	call := timeline.ToolCall{Name: item.Type.String()}
	if item.SourceToolCall != nil {
		call = *item.SourceToolCall
	}
	_, _ = r.events.Add(timeline.ToolResult{
		Call:     call,
		Success:  result.Success,
		Output:   result.Output,
		Error:    result.Error,
		Duration: result.Duration,
	})
	if !result.Success {
		r.notice(timeline.NoticeError, fmt.Sprintf("%s failed: %s", item.Label, result.Error))
	}
}

func (r *Runner) notice(level timeline.NoticeLevel, msg string) {
	if r.events == nil {
		return
	}
	_, _ = r.events.Add(timeline.SystemNotice{Level: level, Message: msg})
}
