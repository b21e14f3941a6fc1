package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/todolist/todolist-go/internal/config"
	"github.com/todolist/todolist-go/internal/crypto"
	"github.com/todolist/todolist-go/internal/mail"
	"github.com/todolist/todolist-go/internal/repository"
	"github.com/todolist/todolist-go/internal/router"
	"github.com/todolist/todolist-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	hasher, err := crypto.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		slog.Error("password hasher setup failed", "error", err)
		os.Exit(1)
	}

	tokens, err := crypto.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry)
	if err != nil {
		slog.Error("token service setup failed", "error", err)
		os.Exit(1)
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		slog.Error("mail setup failed", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(db)
	taskService := service.NewTaskService(store)
	accountService := service.NewAccountService(store, taskService, hasher, tokens, mailer)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Accounts:       accountService,
			Tasks:          taskService,
			Tokens:         tokens,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func newMailer(cfg config.Config) (mail.Sender, error) {
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP_HOST not set, verification mails will only be logged")
		return mail.LogSender{}, nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.MailFrom,
	})
}
