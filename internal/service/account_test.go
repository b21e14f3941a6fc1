package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todolist/todolist-go/internal/model"
)

func strPtr(s string) *string { return &s }

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.accounts.Create(ctx, signupRequest("ana1", "ana@x.com"))
	require.NoError(t, err)

	assert.NoError(t, uuid.Validate(resp.ID))
	assert.Equal(t, model.CreateUserResponse{
		ID:          resp.ID,
		Name:        "Ana",
		Username:    "ana1",
		Email:       "ana@x.com",
		PhoneNumber: "11999999999",
	}, resp)

	stored, err := env.store.Users.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.Equal(t, model.RoleUser, stored.Role)
	assert.False(t, stored.Verified)
	assert.Nil(t, stored.VerificationCode)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestCreateAccountDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "ana1", "ana@x.com")

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "same username", username: "ana1", email: "other@x.com"},
		{name: "same email", username: "other", email: "ana@x.com"},
		{name: "both", username: "ana1", email: "ana@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.Create(ctx, signupRequest(tt.username, tt.email))
			assert.ErrorIs(t, err, ErrAccountAlreadyExists)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	resp, err := env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, id, resp.User.ID)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	claims, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Subject)
	assert.Equal(t, "ROLE_USER", claims.Role)

	profile, err := env.accounts.GetProfile(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "ana1", profile.Username)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "ana1", "ana@x.com")

	resp, err := env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, resp.Token)

	_, err = env.accounts.Login(ctx, model.LoginRequest{Email: "ghost@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetProfileUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.GetProfile(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateProfilePartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	resp, err := env.accounts.UpdateProfile(ctx, id, model.UpdateUserRequest{PhoneNumber: strPtr("11888888888")})
	require.NoError(t, err)
	assert.Equal(t, model.UpdateUserResponse{
		Name:        "Ana",
		Username:    "ana1",
		Email:       "ana@x.com",
		PhoneNumber: "11888888888",
	}, resp)

	resp, err = env.accounts.UpdateProfile(ctx, id, model.UpdateUserRequest{Name: strPtr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", resp.Name)
	assert.Equal(t, "11888888888", resp.PhoneNumber)

	_, err = env.accounts.UpdateProfile(ctx, uuid.NewString(), model.UpdateUserRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerificationFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")
	env.accounts.newCode = func() (string, error) { return "48213", nil }

	sent, err := env.accounts.SendVerificationCode(ctx, id)
	require.NoError(t, err)
	assert.True(t, sent)

	msg := env.mailer.last()
	assert.Equal(t, "ana@x.com", msg.To)
	assert.Equal(t, "ToDoList verification code", msg.Subject)
	assert.Equal(t, "Your verification code is: 48213", msg.Body)

	_, err = env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "11111"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	verified, err := env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "48213"})
	require.NoError(t, err)
	assert.True(t, verified)
	assert.Equal(t, "Account verified", env.mailer.last().Subject)
	assert.Equal(t, "Your account has been verified!", env.mailer.last().Body)

	stored, err := env.store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.VerificationCode)

	_, err = env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "48213"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestVerifyWithoutCode(t *testing.T) {
	env := newTestEnv(t)
	id := env.signup(t, "ana1", "ana@x.com")

	_, err := env.accounts.VerifyAccount(context.Background(), id, model.VerifyAccountRequest{Code: "12345"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestResendOverwritesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	codes := []string{"10001", "20002"}
	env.accounts.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	for i := 0; i < 2; i++ {
		_, err := env.accounts.SendVerificationCode(ctx, id)
		require.NoError(t, err)
	}

	_, err := env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "10001"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	verified, err := env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "20002"})
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestSendVerificationCodeMailFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")
	env.mailer.err = errMailDown

	sent, err := env.accounts.SendVerificationCode(ctx, id)
	assert.ErrorIs(t, err, errMailDown)
	assert.False(t, sent)

	stored, err := env.store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.VerificationCode)
}

func TestVerifyAccountMailFailureKeepsVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")
	env.accounts.newCode = func() (string, error) { return "55555", nil }

	_, err := env.accounts.SendVerificationCode(ctx, id)
	require.NoError(t, err)

	env.mailer.err = errMailDown
	verified, err := env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "55555"})
	assert.ErrorIs(t, err, errMailDown)
	assert.False(t, verified)

	stored, err := env.store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.VerificationCode)

	env.mailer.err = nil
	_, err = env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "55555"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestSendVerificationCodeMailTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	env.accounts.mailer = blockingMailer{}
	env.accounts.mailTimeout = 50 * time.Millisecond

	sent, err := env.accounts.SendVerificationCode(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, sent)

	stored, err := env.store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.VerificationCode)
}

func TestChangePasswordKeepsConcurrentVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")
	env.accounts.newCode = func() (string, error) { return "48213", nil }

	gate := newGatedHasher(env.accounts.hasher)
	env.accounts.hasher = gate

	done := make(chan error, 1)
	go func() {
		done <- env.accounts.ChangePassword(ctx, id, model.ChangePasswordRequest{
			CurrentPassword: "password123",
			NewPassword:     "new-password-1",
		})
	}()

	// ChangePassword has read the account and is hashing the new password.
	<-gate.entered

	_, err := env.accounts.SendVerificationCode(ctx, id)
	require.NoError(t, err)
	verified, err := env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "48213"})
	require.NoError(t, err)
	require.True(t, verified)

	close(gate.release)
	require.NoError(t, <-done)

	profile, err := env.accounts.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.True(t, profile.Verified)

	stored, err := env.store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.VerificationCode)

	_, err = env.accounts.VerifyAccount(ctx, id, model.VerifyAccountRequest{Code: "48213"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	_, err = env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestChangePasswordAccountDeletedMidway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	gate := newGatedHasher(env.accounts.hasher)
	env.accounts.hasher = gate

	done := make(chan error, 1)
	go func() {
		done <- env.accounts.ChangePassword(ctx, id, model.ChangePasswordRequest{
			CurrentPassword: "password123",
			NewPassword:     "new-password-1",
		})
	}()

	<-gate.entered
	deleted, err := env.accounts.Delete(ctx, id)
	require.NoError(t, err)
	require.True(t, deleted)

	close(gate.release)
	assert.ErrorIs(t, <-done, ErrAccountNotFound)
}

func TestSendVerificationCodeUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.SendVerificationCode(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, env.mailer.sent)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signup(t, "ana1", "ana@x.com")

	err := env.accounts.ChangePassword(ctx, id, model.ChangePasswordRequest{
		CurrentPassword: "not-my-password",
		NewPassword:     "new-password-1",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.accounts.ChangePassword(ctx, id, model.ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password-1",
	}))

	_, err = env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "ana1", "ana@x.com")

	require.NoError(t, env.accounts.ResetPassword(ctx, model.ResetPasswordRequest{
		Email:       "ana@x.com",
		NewPassword: "reset-password-1",
	}))

	_, err := env.accounts.Login(ctx, model.LoginRequest{Email: "ana@x.com", Password: "reset-password-1"})
	assert.NoError(t, err)

	err = env.accounts.ResetPassword(ctx, model.ResetPasswordRequest{Email: "ghost@x.com", NewPassword: "whatever-123"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.signup(t, "ana1", "ana@x.com")
	bob := env.signup(t, "bob1", "bob@x.com")

	for i := 0; i < 3; i++ {
		_, err := env.tasks.Create(ctx, ana, model.CreateTaskRequest{Name: "a", Content: "a"})
		require.NoError(t, err)
	}
	_, err := env.tasks.Create(ctx, bob, model.CreateTaskRequest{Name: "b", Content: "b"})
	require.NoError(t, err)

	deleted, err := env.accounts.Delete(ctx, ana)
	require.NoError(t, err)
	assert.True(t, deleted)

	n, err := env.store.Tasks.CountByUser(ctx, ana)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = env.store.Tasks.CountByUser(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.accounts.GetProfile(ctx, ana)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = env.accounts.Delete(ctx, ana)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteAccountIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana := env.signup(t, "ana1", "ana@x.com")

	for i := 0; i < 2; i++ {
		_, err := env.tasks.Create(ctx, ana, model.CreateTaskRequest{Name: "a", Content: "a"})
		require.NoError(t, err)
	}

	// Make the account delete fail after the tasks have been removed.
	_, err := env.store.DB().ExecContext(ctx, `CREATE TRIGGER block_user_delete BEFORE DELETE ON users
		BEGIN SELECT RAISE(ABORT, 'user delete blocked'); END`)
	require.NoError(t, err)

	deleted, err := env.accounts.Delete(ctx, ana)
	require.Error(t, err)
	assert.False(t, deleted)
	assert.False(t, errors.Is(err, ErrAccountNotFound))

	n, err := env.store.Tasks.CountByUser(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	exists, err := env.store.Users.Exists(ctx, ana)
	require.NoError(t, err)
	assert.True(t, exists)
}
