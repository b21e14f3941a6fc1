package model

import "time"

// Task represents a task in the database. Every task has exactly one owner.
type Task struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Content   string    `db:"content"`
	Completed bool      `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CreateTaskResponse is the summary returned after creating a task.
type CreateTaskResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// UpdateTaskRequest is a partial task update. Nil fields are left untouched.
type UpdateTaskRequest struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

type UpdateTaskResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// TaskResponse represents a single task in a listing.
type TaskResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}
