// Package transition implements the task lifecycle state machine as a pure
// function over (current state, event type). It performs no I/O and is
// deterministic, so the orchestrator can call it inside a transaction.
package transition

import "github.com/voxtask/voxtask/internal/domain"

// Kind classifies the result of applying an event to a state.
type Kind string

const (
	// KindApplied means the event produced a transition to Outcome.Next.
	KindApplied Kind = "applied"
	// KindIgnored means no rule matched; state is unchanged. The event is
	// still logged by the orchestrator, so channel noise never corrupts
	// state but is never lost either.
	KindIgnored Kind = "ignored"
	// KindRejected means the event is semantically disallowed in the
	// current state. State is unchanged.
	KindRejected Kind = "rejected"
)

// Outcome is the result of a transition computation.
type Outcome struct {
	Kind   Kind
	Next   domain.TaskState
	Reason string
}

// forward holds the regular progression rules. Events absent from a
// state's row fall through to the Ignored default; terminal-transition
// events (cancel, fatal_error, replan, execute) are handled before this
// table is consulted.
var forward = map[domain.TaskState]map[string]domain.TaskState{
	domain.TaskStateInit: {
		domain.EventEmailReceived:    domain.TaskStateGatherInfo,
		domain.EventVoiceCallStarted: domain.TaskStateGatherInfo,
	},
	domain.TaskStateGatherInfo: {
		domain.EventInfoGathered: domain.TaskStateResearch,
	},
	domain.TaskStateResearch: {
		domain.EventResearchDone: domain.TaskStateReadyToExecute,
	},
	domain.TaskStateCallInProgress: {
		domain.EventInputRequired:  domain.TaskStateAwaitingUserInput,
		domain.EventVoiceCallEnded: domain.TaskStateCompleted,
	},
	domain.TaskStateAwaitingUserInput: {
		domain.EventEmailReceived:    domain.TaskStateCallInProgress,
		domain.EventVoiceCallStarted: domain.TaskStateCallInProgress,
	},
}

// Transition computes the next state for the given current state and
// canonical event type.
func Transition(current domain.TaskState, eventType string) Outcome {
	if current.IsTerminal() {
		// Terminal states are absorbing. The one distinguished case:
		// re-executing a completed task is an explicit client error,
		// not mere noise.
		if current == domain.TaskStateCompleted && eventType == domain.EventExecute {
			return Outcome{Kind: KindRejected, Next: current, Reason: "task already completed"}
		}
		return ignored(current)
	}

	switch eventType {
	case domain.EventCancel:
		return applied(domain.TaskStateCancelled)
	case domain.EventFatalError:
		return applied(domain.TaskStateFailed)
	case domain.EventReplan:
		return applied(domain.TaskStateInit)
	case domain.EventExecute:
		return applied(domain.TaskStateCallInProgress)
	}

	if next, ok := forward[current][eventType]; ok {
		return applied(next)
	}
	return ignored(current)
}

func applied(next domain.TaskState) Outcome {
	return Outcome{Kind: KindApplied, Next: next}
}

func ignored(current domain.TaskState) Outcome {
	return Outcome{Kind: KindIgnored, Next: current}
}
