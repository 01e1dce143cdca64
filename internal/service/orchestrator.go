package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxtask/voxtask/internal/domain"
	"github.com/voxtask/voxtask/internal/repository"
	"github.com/voxtask/voxtask/internal/transition"
)

// Orchestrator coordinates event ingestion: it is a stateless coordinator
// over Task Store transactions and holds no persistent state itself. The
// log append and the state mutation for one task never interleave with
// another in-flight mutation for the same task; the serialization point is
// the row-level lock taken by GetByIDForUpdate, so the guarantee holds
// across processes, not just goroutines.
type Orchestrator struct {
	pool     *pgxpool.Pool
	taskRepo *repository.TaskRepository
	logRepo  *repository.TaskLogRepository
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	logRepo *repository.TaskLogRepository,
) *Orchestrator {
	return &Orchestrator{
		pool:     pool,
		taskRepo: taskRepo,
		logRepo:  logRepo,
	}
}

// IngestResult reports what one ingested event did.
type IngestResult struct {
	Outcome       transition.Outcome
	LogID         string
	PreviousState domain.TaskState
	NewState      domain.TaskState
}

// Ingest records one canonical event and applies its state transition as a
// single atomic unit. The log append is unconditional: Ignored and
// Rejected outcomes still produce a log entry, but only an outcome that
// changes state updates the task row. Every call ends in either a
// persisted log entry or a returned error, never silence.
func (o *Orchestrator) Ingest(ctx context.Context, event *domain.CanonicalEvent) (*IngestResult, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", domain.ErrStorageUnavailable, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	task, err := o.taskRepo.GetByIDForUpdate(ctx, tx, event.TaskID)
	if err != nil {
		return nil, err
	}

	entry := &domain.TaskLog{
		TaskID:    task.ID,
		EventType: event.EventType,
		Payload:   event.Payload,
	}
	if err := o.logRepo.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	outcome := transition.Transition(task.State, event.EventType)
	if outcome.Kind == transition.KindApplied && outcome.Next != task.State {
		if err := o.taskRepo.UpdateState(ctx, tx, task.ID, outcome.Next); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit transaction: %v", domain.ErrStorageUnavailable, err)
	}

	slog.Info("event ingested",
		"task_id", task.ID,
		"event_type", event.EventType,
		"channel", event.Channel,
		"outcome", outcome.Kind,
		"old_state", task.State,
		"new_state", outcome.Next,
		"log_id", entry.ID,
	)

	return &IngestResult{
		Outcome:       outcome,
		LogID:         entry.ID,
		PreviousState: task.State,
		NewState:      outcome.Next,
	}, nil
}
