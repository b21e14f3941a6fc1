package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/todolist/todolist-go/internal/repository/migrations"
)

// Supported values for the DB_DRIVER setting. They double as the
// database/sql driver names registered by the imported drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// NewDB opens a connection pool for driver and verifies it with a ping.
func NewDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if _, err := dialect(driver); err != nil {
		return nil, err
	}

	if driver == DriverMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// Migrate applies the embedded goose migrations that have not run yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	d, err := dialect(db.DriverName())
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(d, db.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// mysqlDSN enables clientFoundRows so RowsAffected counts matched rows,
// not changed ones. Updates that rewrite identical values still report a hit.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case DriverMySQL:
		return goose.DialectMySQL, nil
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
