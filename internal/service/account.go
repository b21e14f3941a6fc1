package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/todolist/todolist-go/internal/crypto"
	"github.com/todolist/todolist-go/internal/mail"
	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/repository"
)

var (
	ErrAccountAlreadyExists    = errors.New("username or email already in use")
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
)

const (
	verificationSubject = "ToDoList verification code"
	verifiedSubject     = "Account verified"
	verifiedBody        = "Your account has been verified!"

	defaultMailTimeout = 15 * time.Second
)

// Hasher hashes new passwords and verifies candidates against stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenIssuer issues session tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(accountID, role string) (string, error)
}

// AccountService handles account lifecycle business logic.
type AccountService struct {
	store   *repository.Store
	tasks   *TaskService
	hasher  Hasher
	tokens  TokenIssuer
	mailer  mail.Sender
	newCode func() (string, error)
	now     func() time.Time

	mailTimeout time.Duration
}

// NewAccountService creates a new AccountService.
func NewAccountService(store *repository.Store, tasks *TaskService, hasher Hasher, tokens TokenIssuer, mailer mail.Sender) *AccountService {
	return &AccountService{
		store:   store,
		tasks:   tasks,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
		newCode: crypto.GenerateVerificationCode,
		now:     func() time.Time { return time.Now().UTC() },

		mailTimeout: defaultMailTimeout,
	}
}

// Create registers a new unverified USER account. It never issues a token.
func (s *AccountService) Create(ctx context.Context, req model.CreateUserRequest) (model.CreateUserResponse, error) {
	_, err := s.store.Users.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	switch {
	case err == nil:
		return model.CreateUserResponse{}, ErrAccountAlreadyExists
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.CreateUserResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.CreateUserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		PhoneNumber:  req.PhoneNumber,
		Verified:     false,
		Role:         model.RoleUser,
		CreatedAt:    s.now(),
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.CreateUserResponse{}, ErrAccountAlreadyExists
		}
		return model.CreateUserResponse{}, err
	}
	slog.Info("account created", "account_id", user.ID)

	return model.CreateUserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
	}, nil
}

// Login authenticates by email and password and returns a session token.
func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.getByEmail(ctx, s.store.Users, req.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role.Authority())
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issue token: %w", err)
	}

	return model.AuthResponse{
		Token: token,
		User: model.AccountResponse{
			ID:          user.ID,
			Name:        user.Name,
			Username:    user.Username,
			Email:       user.Email,
			PhoneNumber: user.PhoneNumber,
			Verified:    user.Verified,
			Role:        user.Role,
			CreatedAt:   user.CreatedAt,
		},
	}, nil
}

// GetProfile returns the public profile of the account.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (model.ProfileResponse, error) {
	user, err := s.getByID(ctx, s.store.Users, accountID)
	if err != nil {
		return model.ProfileResponse{}, err
	}

	return model.ProfileResponse{
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Verified:    user.Verified,
		CreatedAt:   user.CreatedAt,
	}, nil
}

// UpdateProfile overwrites name and phone when present in req.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, req model.UpdateUserRequest) (model.UpdateUserResponse, error) {
	user, err := s.getByID(ctx, s.store.Users, accountID)
	if err != nil {
		return model.UpdateUserResponse{}, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}

	if err := s.store.Users.UpdateProfile(ctx, user.ID, user.Name, user.PhoneNumber); err != nil {
		return model.UpdateUserResponse{}, notFoundAsAccount(err)
	}

	return model.UpdateUserResponse{
		Name:        user.Name,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
	}, nil
}

// Delete removes the account together with all of its tasks in one
// transaction and reports whether the account no longer exists.
func (s *AccountService) Delete(ctx context.Context, accountID string) (bool, error) {
	err := s.store.InTx(ctx, func(ctx context.Context, users *repository.UserRepository, tasks *repository.TaskRepository) error {
		if _, err := s.getByID(ctx, users, accountID); err != nil {
			return err
		}

		if _, err := s.tasks.bind(users, tasks).DeleteAll(ctx, accountID); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}

		if err := users.Delete(ctx, accountID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	exists, err := s.store.Users.Exists(ctx, accountID)
	if err != nil {
		return false, err
	}
	slog.Info("account deleted", "account_id", accountID)
	return !exists, nil
}

// SendVerificationCode stores a fresh code on the account, replacing any
// previous one, and mails it to the account's email. If the mail cannot be
// sent the code is withdrawn again and the error is returned.
func (s *AccountService) SendVerificationCode(ctx context.Context, accountID string) (bool, error) {
	user, err := s.getByID(ctx, s.store.Users, accountID)
	if err != nil {
		return false, err
	}

	code, err := s.newCode()
	if err != nil {
		return false, fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.store.Users.SetVerificationCode(ctx, user.ID, code); err != nil {
		return false, notFoundAsAccount(err)
	}

	err = s.send(ctx, mail.Message{
		To:      user.Email,
		Subject: verificationSubject,
		Body:    "Your verification code is: " + code,
	})
	if err != nil {
		if clearErr := s.store.Users.ClearVerificationCode(context.WithoutCancel(ctx), user.ID, code); clearErr != nil &&
			!errors.Is(clearErr, repository.ErrUserNotFound) {
			slog.Error("withdraw verification code failed", "account_id", user.ID, "error", clearErr)
		}
		return false, err
	}
	return true, nil
}

// VerifyAccount redeems the outstanding code. The account is marked verified
// and the code cleared in a single conditional write, so a code is redeemed at
// most once. A confirmation mail follows; its failure is reported but does not
// undo the verification.
func (s *AccountService) VerifyAccount(ctx context.Context, accountID string, req model.VerifyAccountRequest) (bool, error) {
	user, err := s.getByID(ctx, s.store.Users, accountID)
	if err != nil {
		return false, err
	}

	if user.VerificationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(req.Code)) != 1 {
		return false, ErrInvalidVerificationCode
	}

	if err := s.store.Users.MarkVerified(ctx, user.ID, req.Code); err != nil {
		if errors.Is(err, repository.ErrCodeMismatch) {
			return false, ErrInvalidVerificationCode
		}
		return false, err
	}
	slog.Info("account verified", "account_id", user.ID)

	err = s.send(ctx, mail.Message{
		To:      user.Email,
		Subject: verifiedSubject,
		Body:    verifiedBody,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID string, req model.ChangePasswordRequest) error {
	user, err := s.getByID(ctx, s.store.Users, accountID)
	if err != nil {
		return err
	}

	match, err := s.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

// ResetPassword replaces the password of the account holding req.Email
// without checking the current password.
func (s *AccountService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	user, err := s.getByEmail(ctx, s.store.Users, req.Email)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *AccountService) setPassword(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users.SetPassword(ctx, user.ID, hash); err != nil {
		return notFoundAsAccount(err)
	}
	slog.Info("password updated", "account_id", user.ID)
	return nil
}

// send delivers msg, giving up after mailTimeout.
func (s *AccountService) send(ctx context.Context, msg mail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %q mail: %w", msg.Subject, err)
	}
	return nil
}

func notFoundAsAccount(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrAccountNotFound
	}
	return err
}

func (s *AccountService) getByID(ctx context.Context, users *repository.UserRepository, id string) (*model.User, error) {
	user, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrAccountNotFound
	}
	return user, err
}

func (s *AccountService) getByEmail(ctx context.Context, users *repository.UserRepository, email string) (*model.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrAccountNotFound
	}
	return user, err
}
