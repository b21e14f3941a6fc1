package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/todolist/todolist-go/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, user_id, name, content, completed, created_at`

// TaskRepository handles task persistence operations.
type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task. The caller assigns ID, UserID and CreatedAt.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	query := r.db.Rebind(`INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Name, task.Content, task.Completed, task.CreatedAt,
	)
	return err
}

// GetByID retrieves a task by id regardless of owner.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	task := &model.Task{}
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := r.db.GetContext(ctx, task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// ListByUser returns all tasks owned by userID, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := []model.Task{}
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id`)
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes name, content and completed for a task owned by task.UserID.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	query := r.db.Rebind(`UPDATE tasks SET name = ?, content = ?, completed = ? WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, task.Name, task.Content, task.Completed, task.ID, task.UserID)
	if err != nil {
		return err
	}
	return expectAffected(result, ErrTaskNotFound)
}

// Delete removes a task by id, restricted to the given owner.
func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(result, ErrTaskNotFound)
}

// DeleteByUser removes every task of userID and returns how many were deleted.
func (r *TaskRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE user_id = ?`), userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TaskRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE user_id = ?`), userID); err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether a task with the given id is stored.
func (r *TaskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE id = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
