package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/service"
)

// TaskHandler handles HTTP requests for the caller's tasks.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// HandleCreate handles POST /api/v1/task/create requests.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), id.AccountID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /api/v1/task/all requests.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.List(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/v1/task/delete/{id} requests.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	taskID := chi.URLParam(r, "id")
	if err := model.ValidateTaskID(taskID); err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), id.AccountID, taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Deleted: deleted})
}

// HandleDeleteAll handles DELETE /api/v1/task/deleteAll requests.
func (h *TaskHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteAll(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Deleted: deleted})
}

// HandleUpdate handles PATCH /api/v1/task/update requests.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Update(r.Context(), id.AccountID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
