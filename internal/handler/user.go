package handler

import (
	"net/http"

	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/service"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	service *service.AccountService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AccountService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleCreate handles POST /api/v1/user/create requests.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/v1/user/login requests.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, resp)
}

// HandleProfile handles GET /api/v1/user/profile requests.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetProfile(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PATCH /api/v1/user/update requests.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), id.AccountID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/v1/user/delete requests.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Deleted: deleted})
}

// HandleSendVerificationCode handles POST /api/v1/user/send-verification-code requests.
func (h *UserHandler) HandleSendVerificationCode(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	sent, err := h.service.SendVerificationCode(r.Context(), id.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SendVerificationCodeResponse{Sent: sent})
}

// HandleVerifyAccount handles POST /api/v1/user/verify-account requests.
func (h *UserHandler) HandleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.VerifyAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verified, err := h.service.VerifyAccount(r.Context(), id.AccountID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.VerifyAccountResponse{Verified: verified})
}

// HandleChangePassword handles POST /api/v1/user/change-password requests.
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), id.AccountID, req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResetPassword handles POST /api/v1/user/reset-password requests.
func (h *UserHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
