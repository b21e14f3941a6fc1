package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService handles task business logic. Every operation is scoped to the
// calling account: tasks of other owners behave as if they did not exist.
type TaskService struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
	now   func() time.Time
}

// NewTaskService creates a new TaskService over the store's pooled repositories.
func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{
		users: store.Users,
		tasks: store.Tasks,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// bind returns a copy of s that runs against the given repositories,
// typically ones bound to an open transaction.
func (s *TaskService) bind(users *repository.UserRepository, tasks *repository.TaskRepository) *TaskService {
	return &TaskService{users: users, tasks: tasks, now: s.now}
}

// Create stores a new incomplete task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID string, req model.CreateTaskRequest) (model.CreateTaskResponse, error) {
	if err := s.requireAccount(ctx, userID); err != nil {
		return model.CreateTaskResponse{}, err
	}

	task := &model.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Content:   req.Content,
		Completed: false,
		CreatedAt: s.now(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return model.CreateTaskResponse{}, err
	}

	return model.CreateTaskResponse{
		ID:      task.ID,
		Name:    task.Name,
		Content: task.Content,
		UserID:  task.UserID,
	}, nil
}

// List returns the tasks owned by userID, newest first.
func (s *TaskService) List(ctx context.Context, userID string) (model.TaskListResponse, error) {
	if err := s.requireAccount(ctx, userID); err != nil {
		return model.TaskListResponse{}, err
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return model.TaskListResponse{}, err
	}

	resp := model.TaskListResponse{Tasks: make([]model.TaskResponse, len(tasks))}
	for i, t := range tasks {
		resp.Tasks[i] = model.TaskResponse{
			ID:        t.ID,
			Name:      t.Name,
			Content:   t.Content,
			Completed: t.Completed,
			UserID:    t.UserID,
			CreatedAt: t.CreatedAt,
		}
	}
	return resp, nil
}

// Delete removes one task owned by userID and reports whether it is gone.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) (bool, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return false, err
	}

	if err := s.tasks.Delete(ctx, taskID, userID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return false, ErrTaskNotFound
		}
		return false, err
	}

	exists, err := s.tasks.Exists(ctx, taskID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// DeleteAll removes every task owned by userID and reports whether none remain.
func (s *TaskService) DeleteAll(ctx context.Context, userID string) (bool, error) {
	if err := s.requireAccount(ctx, userID); err != nil {
		return false, err
	}

	n, err := s.tasks.DeleteByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	slog.Debug("tasks deleted", "account_id", userID, "count", n)

	remaining, err := s.tasks.CountByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

// Update applies the fields present in req to a task owned by userID.
func (s *TaskService) Update(ctx context.Context, userID string, req model.UpdateTaskRequest) (model.UpdateTaskResponse, error) {
	task, err := s.ownedTask(ctx, userID, req.ID)
	if err != nil {
		return model.UpdateTaskResponse{}, err
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Content != nil {
		task.Content = *req.Content
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return model.UpdateTaskResponse{}, ErrTaskNotFound
		}
		return model.UpdateTaskResponse{}, err
	}

	return model.UpdateTaskResponse{
		ID:        task.ID,
		Name:      task.Name,
		Content:   task.Content,
		Completed: task.Completed,
	}, nil
}

func (s *TaskService) ownedTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) requireAccount(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return nil
}
