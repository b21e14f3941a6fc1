package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/todolist/todolist-go/internal/crypto"
	"github.com/todolist/todolist-go/internal/middleware"
	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

type errorBody struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

type validator interface {
	Validate() error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) errorBody {
	return errorBody{Error: msg}
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// On failure it writes the response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst validator) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}

	if err := dst.Validate(); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// requireIdentity returns the authenticated caller or writes 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	}
	return id, ok
}

// writeError translates domain errors into HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verrs})
	case errors.Is(err, service.ErrAccountAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, crypto.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidVerificationCode):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
