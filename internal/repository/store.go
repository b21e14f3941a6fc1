package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Store bundles the repositories over one connection pool and runs units of
// work that must commit or roll back together.
type Store struct {
	db    *sqlx.DB
	Users *UserRepository
	Tasks *TaskRepository
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		Users: NewUserRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

// InTx runs fn with repositories bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, users *UserRepository, tasks *TaskRepository) error) error {
	return WithTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, NewUserRepository(tx), NewTaskRepository(tx))
	})
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
