package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/voxtask/voxtask/internal/handler/dto"
	"github.com/voxtask/voxtask/internal/middleware"
	"github.com/voxtask/voxtask/internal/repository"
	"github.com/voxtask/voxtask/internal/service"
	"github.com/voxtask/voxtask/internal/transition"
)

// handleCreateTask creates a new task.
// @Summary Create a new task
// @Description Creates a task in INIT owned by the authenticated user.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Goal) == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "goal is required")
		return
	}

	task, err := h.taskService.CreateTask(ctx, service.CreateTaskParams{
		UserID:   user.ID,
		Goal:     req.Goal,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleListTasks lists the authenticated user's tasks.
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param state query string false "Comma-separated lifecycle states"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.TasksListResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	filters := repository.TaskListFilters{
		UserID: user.ID,
		Limit:  50,
	}

	if raw := r.URL.Query().Get("state"); raw != "" {
		filters.States = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 200")
			return
		}
		filters.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "offset must be non-negative")
			return
		}
		filters.Offset = offset
	}

	tasks, total, err := h.taskService.ListTasks(ctx, filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.TasksListResponse{
		Tasks:  make([]dto.TaskResponse, 0, len(tasks)),
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, dto.ToTaskResponse(task))
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleGetTask retrieves one task.
// @Summary Get task details
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(ctx, taskID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleGetTaskLogs retrieves the full audit log of a task.
// @Summary Get task audit log
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskLogsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/logs [get]
func (h *Handler) handleGetTaskLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	logs, err := h.taskService.GetTaskLogs(ctx, taskID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.TaskLogsResponse{Logs: make([]dto.TaskLogResponse, 0, len(logs))}
	for _, entry := range logs {
		resp.Logs = append(resp.Logs, dto.ToTaskLogResponse(entry))
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleExecuteTask requests execution of a task.
// @Summary Execute a task
// @Description Ingests an internal execute event. Rejected with 409 when the task is already completed.
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.IngestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.IngestResponse
// @Security BearerAuth
// @Router /tasks/{id}/execute [post]
func (h *Handler) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	h.handleInternalEvent(w, r, h.taskService.Execute)
}

// handleReplanTask resets a task back to INIT.
// @Summary Replan a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.IngestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/replan [post]
func (h *Handler) handleReplanTask(w http.ResponseWriter, r *http.Request) {
	h.handleInternalEvent(w, r, h.taskService.Replan)
}

// handleCancelTask cancels a task.
// @Summary Cancel a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.IngestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/cancel [post]
func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	h.handleInternalEvent(w, r, h.taskService.Cancel)
}

// handleInternalEvent is the shared adapter for execute/replan/cancel.
// A Rejected outcome is a client error, not a system fault: it maps to
// 409 with the outcome body so the caller sees why.
func (h *Handler) handleInternalEvent(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, taskID, userID string) (*service.IngestResult, error),
) {
	ctx := r.Context()

	user, err := middleware.GetUserFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	result, err := op(ctx, taskID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Outcome.Kind == transition.KindRejected {
		status = http.StatusConflict
	}
	respondJSON(w, status, dto.ToIngestResponse(result))
}
