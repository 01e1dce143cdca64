package dto

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Goal     string         `json:"goal"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
