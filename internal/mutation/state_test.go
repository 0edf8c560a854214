package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManagerLegalPath(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	for _, to := range []State{StateThinking, StatePlanning, StatePreviewReady, StateExecuting, StateDone, StateIdle} {
		require.NoError(t, m.Transition(to), "transition to %s", to)
	}
	assert.Equal(t, StateIdle, m.State())
}

func TestStateManagerPreviewReadyToExecutingIsLegal(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	require.NoError(t, m.Transition(StatePlanning))
	require.NoError(t, m.Transition(StatePreviewReady))
	assert.NoError(t, m.Transition(StateExecuting))
}

func TestStateManagerRejectsInvalidTransition(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	require.NoError(t, m.Transition(StatePlanning))

	err := m.Transition(StateExecuting)
	require.Error(t, err)
	assert.Equal(t, StatePlanning, m.State(), "state must stay unchanged after a rejected transition")
}

func TestStateManagerObserversRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	var order []int
	m.OnStateChange(func(State, *Plan) { order = append(order, 1) })
	m.OnStateChange(func(State, *Plan) { order = append(order, 2) })

	require.NoError(t, m.Transition(StateThinking))
	assert.Equal(t, []int{1, 2}, order)
}

func TestStateManagerSyncsPlanState(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	plan := &Plan{ID: "plan_x", State: StatePreviewReady}
	require.NoError(t, m.Transition(StatePlanning))
	require.NoError(t, m.Transition(StatePreviewReady))
	require.NoError(t, m.TransitionWithPlan(StateExecuting, plan))

	assert.Equal(t, StateExecuting, plan.State)
	assert.Same(t, plan, m.Plan())
}

func TestCanAutoApplyRequiresFlagAndEligibleItems(t *testing.T) {
	t.Parallel()

	low := Item{Type: TypeWriteFile, Risk: RiskLow, CanAutoApply: true}
	med := Item{Type: TypeRunBash, Risk: RiskMed, CanAutoApply: true}
	high := Item{Type: TypeRunBash, Risk: RiskHigh, CanAutoApply: true}
	optOut := Item{Type: TypeWriteFile, Risk: RiskLow}

	m := NewStateManager()
	assert.False(t, m.CanAutoApply(Plan{Items: []Item{low}}), "flag off blocks auto-apply")

	m.SetAutoApprove(true)
	assert.True(t, m.CanAutoApply(Plan{Items: []Item{low, med}}))
	assert.False(t, m.CanAutoApply(Plan{Items: []Item{low, high}}), "one high-risk item always forces confirmation")
	assert.False(t, m.CanAutoApply(Plan{Items: []Item{low, optOut}}), "every item must opt in")
	assert.False(t, m.CanAutoApply(Plan{}), "empty plan never auto-applies")
}

func TestStateManagerResetReturnsToIdle(t *testing.T) {
	t.Parallel()

	m := NewStateManager()
	require.NoError(t, m.Transition(StateThinking))
	m.Reset()
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Plan())
}

func TestStateManagerResetRecoversMidFlight(t *testing.T) {
	t.Parallel()

	// reset is out-of-band: it must work even where IDLE is not a legal
	// transition target, so an interrupted turn can always recover
	m := NewStateManager()
	require.NoError(t, m.Transition(StatePlanning))
	require.NoError(t, m.Transition(StatePreviewReady))
	require.NoError(t, m.Transition(StateExecuting))
	assert.False(t, CanTransition(m.State(), StateIdle))

	var notified []State
	m.OnStateChange(func(s State, _ *Plan) { notified = append(notified, s) })
	m.Reset()

	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Plan())
	assert.Equal(t, []State{StateIdle}, notified)
}
