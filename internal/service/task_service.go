package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/repository"
)

// TaskService provides the task CRUD surface and the internal-channel
// operations (execute, replan, cancel), which it expresses as canonical
// events fed through the Orchestrator so they go through the same log and
// state machine as channel webhooks.
type TaskService struct {
	pool         *pgxpool.Pool
	taskRepo     *repository.TaskRepository
	logRepo      *repository.TaskLogRepository
	userRepo     *repository.UserRepository
	orchestrator *Orchestrator
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	logRepo *repository.TaskLogRepository,
	userRepo *repository.UserRepository,
	orchestrator *Orchestrator,
) *TaskService {
	return &TaskService{
		pool:         pool,
		taskRepo:     taskRepo,
		logRepo:      logRepo,
		userRepo:     userRepo,
		orchestrator: orchestrator,
	}
}

// CreateTaskParams holds inputs for CreateTask.
type CreateTaskParams struct {
	UserID   string
	Goal     string
	Metadata map[string]any
}

// CreateTask creates a task in INIT and writes its first log entry.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	if params.Goal == "" {
		return nil, domain.ErrEmptyGoal
	}

	user, err := s.userRepo.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", domain.ErrStorageUnavailable, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	task := &domain.Task{
		UserID:   params.UserID,
		Goal:     params.Goal,
		State:    domain.TaskStateInit,
		Metadata: params.Metadata,
	}
	task, err = s.taskRepo.Create(ctx, tx, task)
	if err != nil {
		return nil, err
	}

	entry := &domain.TaskLog{
		TaskID:    task.ID,
		EventType: "task.created",
		Payload:   map[string]any{"goal": task.Goal, "user_id": task.UserID},
	}
	if err := s.logRepo.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit transaction: %v", domain.ErrStorageUnavailable, err)
	}

	slog.Info("task created", "task_id", task.ID, "user_id", task.UserID)

	return task, nil
}

// GetTask retrieves a task, verifying ownership.
func (s *TaskService) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(userID) {
		return nil, domain.ErrNotTaskOwner
	}
	return task, nil
}

// ListTasks lists the user's tasks with optional state filters.
func (s *TaskService) ListTasks(ctx context.Context, filters repository.TaskListFilters) ([]*domain.Task, int, error) {
	for _, state := range filters.States {
		if !domain.TaskState(state).IsValid() {
			return nil, 0, domain.ErrInvalidState
		}
	}
	return s.taskRepo.List(ctx, filters)
}

// GetTaskLogs retrieves the full audit log for a task, verifying ownership.
func (s *TaskService) GetTaskLogs(ctx context.Context, taskID, userID string) ([]*domain.TaskLog, error) {
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.logRepo.GetByTaskID(ctx, taskID)
}

// Execute requests task execution on behalf of its owner.
func (s *TaskService) Execute(ctx context.Context, taskID, userID string) (*IngestResult, error) {
	return s.ingestInternal(ctx, taskID, userID, domain.EventExecute)
}

// Replan resets the task back to INIT on behalf of its owner.
func (s *TaskService) Replan(ctx context.Context, taskID, userID string) (*IngestResult, error) {
	return s.ingestInternal(ctx, taskID, userID, domain.EventReplan)
}

// Cancel cancels the task on behalf of its owner.
func (s *TaskService) Cancel(ctx context.Context, taskID, userID string) (*IngestResult, error) {
	return s.ingestInternal(ctx, taskID, userID, domain.EventCancel)
}

// ingestInternal builds an internal-channel canonical event and runs it
// through the orchestrator. Ownership is checked up front; the state read
// that matters happens again under the row lock inside Ingest.
func (s *TaskService) ingestInternal(ctx context.Context, taskID, userID, eventType string) (*IngestResult, error) {
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}

	event := &domain.CanonicalEvent{
		TaskID:     taskID,
		EventType:  eventType,
		Channel:    domain.ChannelInternal,
		OccurredAt: time.Now().UTC(),
		Payload:    map[string]any{"requested_by": userID},
	}
	return s.orchestrator.Ingest(ctx, event)
}
