package domain

import "time"

// TaskState represents the lifecycle state of a task in the state machine.
type TaskState string

const (
	TaskStateInit              TaskState = "INIT"
	TaskStateGatherInfo        TaskState = "GATHER_INFO"
	TaskStateResearch          TaskState = "RESEARCH"
	TaskStateReadyToExecute    TaskState = "READY_TO_EXECUTE"
	TaskStateCallInProgress    TaskState = "CALL_IN_PROGRESS"
	TaskStateAwaitingUserInput TaskState = "AWAITING_USER_INPUT"
	TaskStateCompleted         TaskState = "COMPLETED"
	TaskStateFailed            TaskState = "FAILED"
	TaskStateCancelled         TaskState = "CANCELLED"
)

// IsTerminal returns true if the state is absorbing: once reached, no
// further event changes the task.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateCancelled
}

// IsValid checks if the state is one of the allowed values.
func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateInit, TaskStateGatherInfo, TaskStateResearch,
		TaskStateReadyToExecute, TaskStateCallInProgress,
		TaskStateAwaitingUserInput, TaskStateCompleted,
		TaskStateFailed, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// Task represents a unit of work owned by a user, driven through its
// lifecycle by ingested channel events.
type Task struct {
	ID        string
	UserID    string
	Goal      string
	State     TaskState
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy checks if the task belongs to the given user.
func (t *Task) IsOwnedBy(userID string) bool {
	return t.UserID == userID
}
