// ABOUTME: Task repository over the tasks table
// ABOUTME: Keeps the weak lead link and the insight a task was accepted from
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, owner_id, title, due_date, priority, status, lead_id, source_insight_id, created_at, completed_at`

func (r *TaskRepository) SaveTask(ctx context.Context, task models.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			due_date = excluded.due_date,
			priority = excluded.priority,
			status = excluded.status,
			lead_id = excluded.lead_id,
			completed_at = excluded.completed_at
	`, task.ID.String(), task.OwnerID, task.Title, task.DueDate, task.Priority, task.Status,
		nullUUID(task.LeadID), task.SourceInsightID, task.CreatedAt, nullTime(task.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetTask(ctx context.Context, ownerID string, id uuid.UUID) (models.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? AND id = ?
	`, ownerID, id.String())

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}
	return task, err
}

func (r *TaskRepository) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) DeleteTask(ctx context.Context, ownerID string, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ? AND id = ?`, ownerID, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func scanTask(s scanner) (models.Task, error) {
	var (
		task        models.Task
		leadID      sql.NullString
		completedAt sql.NullTime
	)
	err := s.Scan(&task.ID, &task.OwnerID, &task.Title, &task.DueDate, &task.Priority, &task.Status,
		&leadID, &task.SourceInsightID, &task.CreatedAt, &completedAt)
	if err != nil {
		return models.Task{}, err
	}
	task.LeadID = parseNullUUID(leadID)
	if completedAt.Valid {
		ts := completedAt.Time
		task.CompletedAt = &ts
	}
	return task, nil
}
