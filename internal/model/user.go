package model

import (
	"strings"
	"time"
)

// Role is the permission level attached to an account and to its tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const authorityPrefix = "ROLE_"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Authority returns the role as carried in the token "role" claim, e.g. "ROLE_USER".
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// ParseAuthority converts a "ROLE_<role>" claim value back into a Role.
func ParseAuthority(s string) (Role, bool) {
	name, found := strings.CutPrefix(s, authorityPrefix)
	if !found {
		return "", false
	}
	role := Role(name)
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// User represents an account in the database.
type User struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Username         string    `db:"username"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	PhoneNumber      string    `db:"phone_number"`
	VerificationCode *string   `db:"verification_code"`
	Verified         bool      `db:"verified"`
	Role             Role      `db:"role"`
	CreatedAt        time.Time `db:"created_at"`
}

// CreateUserRequest represents a signup request.
type CreateUserRequest struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone"`
}

// CreateUserResponse is returned after a successful signup. It never carries a token.
type CreateUserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents a login response with a JWT token and account info.
type AuthResponse struct {
	Token string          `json:"token"`
	User  AccountResponse `json:"user"`
}

// AccountResponse represents account data safe for API responses (no sensitive fields).
type AccountResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone"`
	Verified    bool      `json:"verified"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileResponse is the caller's own profile.
type ProfileResponse struct {
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateUserRequest is a partial profile update. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone"`
}

// UpdateUserResponse represents the profile subset returned after an update.
type UpdateUserResponse struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type VerifyAccountRequest struct {
	Code string `json:"verification_code"`
}

type SendVerificationCodeResponse struct {
	Sent bool `json:"sent"`
}

type VerifyAccountResponse struct {
	Verified bool `json:"verified"`
}

// DeleteResponse reports whether the deleted resource no longer exists.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
