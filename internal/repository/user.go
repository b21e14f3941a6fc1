package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/todolist/todolist-go/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrCodeMismatch  = errors.New("verification code does not match")
)

const userColumns = `id, name, username, email, password_hash, phone_number,
	verification_code, verified, role, created_at`

// UserRepository handles account persistence operations.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository bound to a pool or a transaction.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The caller assigns ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := r.db.Rebind(`INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.PhoneNumber,
		user.VerificationCode, user.Verified, user.Role, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByUsernameOrEmail returns any user holding either the username or the email.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`, username, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	user := &model.User{}
	if err := r.db.GetContext(ctx, user, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile writes name and phone number. Username, email and
// created_at are never written after creation.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, phoneNumber string) error {
	return r.exec(ctx, `UPDATE users SET name = ?, phone_number = ? WHERE id = ?`, name, phoneNumber, id)
}

// SetPassword replaces the stored password hash.
func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// SetVerificationCode stores code as the outstanding verification code,
// replacing any previous one.
func (r *UserRepository) SetVerificationCode(ctx context.Context, id, code string) error {
	return r.exec(ctx, `UPDATE users SET verification_code = ? WHERE id = ?`, code, id)
}

// ClearVerificationCode removes code if it is still the outstanding one.
// A newer code is left in place.
func (r *UserRepository) ClearVerificationCode(ctx context.Context, id, code string) error {
	return r.exec(ctx, `UPDATE users SET verification_code = NULL WHERE id = ? AND verification_code = ?`, id, code)
}

// MarkVerified redeems code: the account becomes verified and the code is
// cleared in one statement. ErrCodeMismatch is returned when code is not the
// outstanding one, including when it was already redeemed.
func (r *UserRepository) MarkVerified(ctx context.Context, id, code string) error {
	err := r.exec(ctx, `UPDATE users SET verified = ?, verification_code = NULL
		WHERE id = ? AND verification_code = ?`, true, id, code)
	if errors.Is(err, ErrUserNotFound) {
		return ErrCodeMismatch
	}
	return err
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	return expectAffected(result, ErrUserNotFound)
}

// Delete removes a user by id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}

	return expectAffected(result, ErrUserNotFound)
}

// Exists reports whether a user with the given id is stored.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// isDuplicateEntryError reports unique constraint violations from any supported driver.
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
