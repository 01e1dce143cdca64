package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxtask/voxtask/internal/domain"
)

// TaskLogRepository handles database operations for the append-only task
// audit log. There is deliberately no update or delete: entries are
// immutable once written and are removed only by the tasks FK cascade.
type TaskLogRepository struct {
	pool *pgxpool.Pool
}

// NewTaskLogRepository creates a new TaskLogRepository.
func NewTaskLogRepository(pool *pgxpool.Pool) *TaskLogRepository {
	return &TaskLogRepository{pool: pool}
}

// Append writes one log entry within the transaction that holds the task's
// row lock, populating ID and CreatedAt.
func (r *TaskLogRepository) Append(ctx context.Context, tx pgx.Tx, entry *domain.TaskLog) error {
	if entry.Payload == nil {
		entry.Payload = map[string]any{}
	}

	query, args, err := psql.
		Insert("task_logs").
		Columns("task_id", "event_type", "payload").
		Values(entry.TaskID, entry.EventType, entry.Payload).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Append query: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append task log: %w", err)
	}

	return nil
}

// GetByTaskID retrieves all log entries for a task in total order.
func (r *TaskLogRepository) GetByTaskID(ctx context.Context, taskID string) ([]*domain.TaskLog, error) {
	query, args, err := psql.
		Select("id", "task_id", "event_type", "payload", "created_at").
		From("task_logs").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByTaskID query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task logs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TaskLog
	for rows.Next() {
		var entry domain.TaskLog
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.EventType,
			&entry.Payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// CountByTaskID returns the number of log entries for a task.
func (r *TaskLogRepository) CountByTaskID(ctx context.Context, taskID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("task_logs").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountByTaskID query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count task logs: %w", err)
	}
	return count, nil
}
