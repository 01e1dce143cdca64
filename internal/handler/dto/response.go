package dto

import (
	"time"

	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/service"
)

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Goal      string         `json:"goal"`
	State     string         `json:"state"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TaskLogResponse represents an audit log entry.
type TaskLogResponse struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// TaskLogsResponse represents the response for GET /tasks/{id}/logs.
type TaskLogsResponse struct {
	Logs []TaskLogResponse `json:"logs"`
}

// IngestResponse represents the outcome of one ingested event.
type IngestResponse struct {
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason,omitempty"`
	LogID         string `json:"log_id"`
	PreviousState string `json:"previous_state"`
	NewState      string `json:"new_state"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		UserID:    task.UserID,
		Goal:      task.Goal,
		State:     string(task.State),
		Metadata:  task.Metadata,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// ToTaskLogResponse converts domain.TaskLog to TaskLogResponse.
func ToTaskLogResponse(entry *domain.TaskLog) TaskLogResponse {
	return TaskLogResponse{
		ID:        entry.ID,
		TaskID:    entry.TaskID,
		EventType: entry.EventType,
		Payload:   entry.Payload,
		CreatedAt: entry.CreatedAt,
	}
}

// ToIngestResponse converts a service.IngestResult to IngestResponse.
func ToIngestResponse(result *service.IngestResult) IngestResponse {
	return IngestResponse{
		Outcome:       string(result.Outcome.Kind),
		Reason:        result.Outcome.Reason,
		LogID:         result.LogID,
		PreviousState: string(result.PreviousState),
		NewState:      string(result.NewState),
	}
}
