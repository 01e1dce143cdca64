package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskCompleted = errors.New("task already completed")
	ErrNotTaskOwner  = errors.New("not task owner")
	ErrInvalidState  = errors.New("invalid task state")
	ErrEmptyGoal     = errors.New("goal is required")

	// Event errors
	ErrInvalidEvent    = errors.New("invalid canonical event")
	ErrUnroutableEvent = errors.New("event resolves no task")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is inactive")
	ErrInvalidToken = errors.New("invalid authentication token")

	// Infrastructure errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrChannelTimeout     = errors.New("channel provider timed out")
)
