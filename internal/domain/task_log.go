package domain

import "time"

// TaskLog is an immutable audit log entry for a task. Entries are
// append-only: once written they are never updated or deleted while the
// task exists, and they are totally ordered by (created_at, id).
type TaskLog struct {
	ID        string
	TaskID    string
	EventType string
	Payload   map[string]any
	CreatedAt time.Time
}
