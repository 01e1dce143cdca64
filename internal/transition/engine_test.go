package transition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/transition"
)

var nonTerminalStates = []domain.TaskState{
	domain.TaskStateInit,
	domain.TaskStateGatherInfo,
	domain.TaskStateResearch,
	domain.TaskStateReadyToExecute,
	domain.TaskStateCallInProgress,
	domain.TaskStateAwaitingUserInput,
}

var terminalStates = []domain.TaskState{
	domain.TaskStateCompleted,
	domain.TaskStateFailed,
	domain.TaskStateCancelled,
}

var allEventTypes = []string{
	domain.EventEmailReceived,
	domain.EventVoiceCallStarted,
	domain.EventVoiceFunctionCall,
	domain.EventVoiceCallEnded,
	domain.EventVoiceStatus,
	domain.EventVoiceUnhandled,
	domain.EventExecute,
	domain.EventReplan,
	domain.EventCancel,
	domain.EventFatalError,
	domain.EventInfoGathered,
	domain.EventResearchDone,
	domain.EventInputRequired,
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, state := range nonTerminalStates {
		out := transition.Transition(state, domain.EventCancel)
		assert.Equal(t, transition.KindApplied, out.Kind, "state %s", state)
		assert.Equal(t, domain.TaskStateCancelled, out.Next, "state %s", state)
	}
}

func TestFatalErrorFromAnyNonTerminalState(t *testing.T) {
	for _, state := range nonTerminalStates {
		out := transition.Transition(state, domain.EventFatalError)
		assert.Equal(t, transition.KindApplied, out.Kind, "state %s", state)
		assert.Equal(t, domain.TaskStateFailed, out.Next, "state %s", state)
	}
}

func TestReplanResetsAnyNonTerminalState(t *testing.T) {
	for _, state := range nonTerminalStates {
		out := transition.Transition(state, domain.EventReplan)
		assert.Equal(t, transition.KindApplied, out.Kind, "state %s", state)
		assert.Equal(t, domain.TaskStateInit, out.Next, "state %s", state)
	}
}

func TestTerminalStatesAbsorbEverything(t *testing.T) {
	for _, state := range terminalStates {
		for _, eventType := range allEventTypes {
			if state == domain.TaskStateCompleted && eventType == domain.EventExecute {
				continue // rejected, covered separately
			}
			out := transition.Transition(state, eventType)
			assert.Equal(t, transition.KindIgnored, out.Kind, "state %s event %s", state, eventType)
			assert.Equal(t, state, out.Next, "state %s event %s", state, eventType)

			// Idempotent under repeated application.
			again := transition.Transition(out.Next, eventType)
			assert.Equal(t, out, again, "state %s event %s", state, eventType)
		}
	}
}

func TestExecuteRejectedWhenCompleted(t *testing.T) {
	out := transition.Transition(domain.TaskStateCompleted, domain.EventExecute)
	require.Equal(t, transition.KindRejected, out.Kind)
	assert.Equal(t, domain.TaskStateCompleted, out.Next)
	assert.NotEmpty(t, out.Reason)
}

func TestExecuteAcceptedFromAnyNonTerminalState(t *testing.T) {
	for _, state := range nonTerminalStates {
		out := transition.Transition(state, domain.EventExecute)
		assert.Equal(t, transition.KindApplied, out.Kind, "state %s", state)
		assert.Equal(t, domain.TaskStateCallInProgress, out.Next, "state %s", state)
	}
}

func TestExecuteIsRepeatableUntilCompleted(t *testing.T) {
	out := transition.Transition(domain.TaskStateReadyToExecute, domain.EventExecute)
	require.Equal(t, transition.KindApplied, out.Kind)
	require.Equal(t, domain.TaskStateCallInProgress, out.Next)

	// A second execute while still in progress is accepted again.
	out = transition.Transition(out.Next, domain.EventExecute)
	require.Equal(t, transition.KindApplied, out.Kind)
	require.Equal(t, domain.TaskStateCallInProgress, out.Next)
}

func TestForwardProgression(t *testing.T) {
	steps := []struct {
		state     domain.TaskState
		eventType string
		next      domain.TaskState
	}{
		{domain.TaskStateInit, domain.EventEmailReceived, domain.TaskStateGatherInfo},
		{domain.TaskStateGatherInfo, domain.EventInfoGathered, domain.TaskStateResearch},
		{domain.TaskStateResearch, domain.EventResearchDone, domain.TaskStateReadyToExecute},
		{domain.TaskStateReadyToExecute, domain.EventExecute, domain.TaskStateCallInProgress},
		{domain.TaskStateCallInProgress, domain.EventInputRequired, domain.TaskStateAwaitingUserInput},
		{domain.TaskStateAwaitingUserInput, domain.EventEmailReceived, domain.TaskStateCallInProgress},
		{domain.TaskStateCallInProgress, domain.EventVoiceCallEnded, domain.TaskStateCompleted},
	}

	for _, step := range steps {
		out := transition.Transition(step.state, step.eventType)
		require.Equal(t, transition.KindApplied, out.Kind, "%s + %s", step.state, step.eventType)
		require.Equal(t, step.next, out.Next, "%s + %s", step.state, step.eventType)
	}
}

func TestUnrecognizedEventIsIgnored(t *testing.T) {
	out := transition.Transition(domain.TaskStateResearch, domain.EventVoiceStatus)
	assert.Equal(t, transition.KindIgnored, out.Kind)
	assert.Equal(t, domain.TaskStateResearch, out.Next)

	out = transition.Transition(domain.TaskStateInit, "voice.unhandled")
	assert.Equal(t, transition.KindIgnored, out.Kind)
	assert.Equal(t, domain.TaskStateInit, out.Next)
}
