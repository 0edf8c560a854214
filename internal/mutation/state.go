package mutation

import (
	"fmt"
	"sync"

	"github.com/yubzen/maestro/internal/log"
)

// State is the execution life-cycle position of the current plan. One
// current state exists per agent turn; it is never shared across turns.
type State int

const (
	StateIdle State = iota
	StateThinking
	StatePlanning
	StatePreviewReady
	StatePendingConfirmation
	StateExecuting
	StateDone
	StateError
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateThinking:
		return "THINKING"
	case StatePlanning:
		return "PLANNING"
	case StatePreviewReady:
		return "PREVIEW_READY"
	case StatePendingConfirmation:
		return "PENDING_CONFIRMATION"
	case StateExecuting:
		return "EXECUTING"
	case StateDone:
		return "DONE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// validTransitions is the full transition table. Anything absent is illegal.
var validTransitions = map[State][]State{
	StateIdle:                {StateThinking, StatePlanning},
	StateThinking:            {StatePlanning, StateError},
	StatePlanning:            {StatePreviewReady, StateError},
	StatePreviewReady:        {StatePendingConfirmation, StateExecuting, StateError},
	StatePendingConfirmation: {StateExecuting, StateDone, StateError},
	StateExecuting:           {StateDone, StateError},
	StateDone:                {StateIdle, StateThinking, StatePlanning},
	StateError:               {StateIdle, StateThinking, StatePlanning},
}

// Observer is notified synchronously after each successful transition, in
// registration order. The plan pointer is nil when no plan is attached.
type Observer func(State, *Plan)

// StateManager is the strict finite-state machine governing one plan's life
// cycle, plus the session-scoped auto-approve policy.
type StateManager struct {
	mu          sync.Mutex
	state       State
	plan        *Plan
	autoApprove bool
	observers   []Observer
}

// NewStateManager starts in IDLE with auto-approve off.
func NewStateManager() *StateManager {
	return &StateManager{state: StateIdle}
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state, or fails leaving the state unchanged.
// Invalid attempts are protocol errors: reported to the debug channel and
// returned, never a crash.
func (m *StateManager) Transition(to State) error {
	return m.TransitionWithPlan(to, nil)
}

// TransitionWithPlan moves to a new state and attaches the plan that the
// transition concerns. The plan's own State field is kept in sync.
func (m *StateManager) TransitionWithPlan(to State, plan *Plan) error {
	if m == nil {
		return fmt.Errorf("state manager is nil")
	}
	m.mu.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mu.Unlock()
		log.Debug("mutation: invalid state transition %s → %s", from, to)
		return fmt.Errorf("invalid state transition %s → %s", from, to)
	}
	m.state = to
	if plan != nil {
		m.plan = plan
	}
	if m.plan != nil {
		m.plan.State = to
	}
	current := m.plan
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	log.Debug("mutation: state %s → %s", from, to)
	for _, observer := range observers {
		observer(to, current)
	}
	return nil
}

// OnStateChange registers an observer. Observers registered earlier are
// notified earlier.
func (m *StateManager) OnStateChange(o Observer) {
	if m == nil || o == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// State returns the current state.
func (m *StateManager) State() State {
	if m == nil {
		return StateIdle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Plan returns the plan attached by the latest transition, or nil.
func (m *StateManager) Plan() *Plan {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan
}

// SetAutoApprove flips the session auto-approve flag at runtime.
func (m *StateManager) SetAutoApprove(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoApprove = enabled
}

// AutoApprove reports the session flag.
func (m *StateManager) AutoApprove() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoApprove
}

// CanAutoApply decides whether this plan may skip confirmation. The check
// runs per plan, never once per session: a single HIGH-risk item forces
// confirmation regardless of the flag, as does any item not individually
// marked auto-applicable.
func (m *StateManager) CanAutoApply(plan Plan) bool {
	if !m.AutoApprove() {
		return false
	}
	if len(plan.Items) == 0 {
		return false
	}
	for _, item := range plan.Items {
		if item.Risk == RiskHigh {
			log.Debug("mutation: auto-approve blocked, high-risk item %q", item.Label)
			return false
		}
		if !item.CanAutoApply {
			return false
		}
	}
	return true
}

// Reset returns to IDLE and detaches any plan. This is an out-of-band
// session reset, not a table transition: it is legal from any state so an
// interrupted turn (session clear, shutdown) can always recover. Observers
// are notified like any other change.
func (m *StateManager) Reset() {
	m.mu.Lock()
	m.state = StateIdle
	m.plan = nil
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, observer := range observers {
		observer(StateIdle, nil)
	}
}
