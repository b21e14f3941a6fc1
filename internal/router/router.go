// Package router assembles the HTTP surface of the API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/todolist/todolist-go/internal/handler"
	"github.com/todolist/todolist-go/internal/middleware"
	"github.com/todolist/todolist-go/internal/service"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Accounts       *service.AccountService
	Tasks          *service.TaskService
	Tokens         middleware.TokenValidator
	AllowedOrigins []string
}

// New returns the API router. Account creation, login and password reset
// are public; every other /api/v1 route requires a bearer token.
func New(d Deps) http.Handler {
	userHandler := handler.NewUserHandler(d.Accounts)
	taskHandler := handler.NewTaskHandler(d.Tasks)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/user/create", userHandler.HandleCreate)
		r.Post("/user/login", userHandler.HandleLogin)
		r.Post("/user/reset-password", userHandler.HandleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.Tokens))

			r.Get("/user/profile", userHandler.HandleProfile)
			r.Delete("/user/delete", userHandler.HandleDelete)
			r.Patch("/user/update", userHandler.HandleUpdate)
			r.Post("/user/send-verification-code", userHandler.HandleSendVerificationCode)
			r.Post("/user/verify-account", userHandler.HandleVerifyAccount)
			r.Post("/user/change-password", userHandler.HandleChangePassword)

			r.Post("/task/create", taskHandler.HandleCreate)
			r.Get("/task/all", taskHandler.HandleList)
			r.Delete("/task/delete/{id}", taskHandler.HandleDelete)
			r.Delete("/task/deleteAll", taskHandler.HandleDeleteAll)
			r.Patch("/task/update", taskHandler.HandleUpdate)
		})
	})

	return r
}
