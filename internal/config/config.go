package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrUnknownHasher = errors.New("unknown password hasher")
	ErrSMTPRequired  = errors.New("SMTP_HOST must be set in production environment")
)

// SMTPConfig holds outbound mail settings. An empty Host selects the log-only sender.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

type Config struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	Env                string        `env:"ENV" envDefault:"development"`
	DBDriver           string        `env:"DB_DRIVER" envDefault:"mysql"`
	DatabaseDSN        string        `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/todolist?parseTime=true"`
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer          string        `env:"JWT_ISSUER" envDefault:"todolist-api"`
	JWTExpiry          time.Duration `env:"JWT_EXPIRY" envDefault:"2h"`
	PasswordHasher     string        `env:"PASSWORD_HASHER" envDefault:"bcrypt"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	SMTP               SMTPConfig    `envPrefix:"SMTP_"`
	MailFrom           string        `env:"MAIL_FROM" envDefault:"no-reply@todolist.local"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if !slices.Contains([]string{"mysql", "pgx", "sqlite"}, cfg.DBDriver) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.DBDriver)
	}
	if !slices.Contains([]string{"bcrypt", "argon2id"}, cfg.PasswordHasher) {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownHasher, cfg.PasswordHasher)
	}
	if cfg.IsProduction() && cfg.SMTP.Host == "" {
		return Config{}, ErrSMTPRequired
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
