package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/todolist/todolist-go/internal/crypto"
	"github.com/todolist/todolist-go/internal/mail"
	"github.com/todolist/todolist-go/internal/model"
	"github.com/todolist/todolist-go/internal/repository"
	"github.com/todolist/todolist-go/internal/repository/sqlitetest"
)

// fakeMailer records sent messages and fails with err when set.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	store    *repository.Store
	accounts *AccountService
	tasks    *TaskService
	tokens   *crypto.TokenService
	mailer   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewStore(sqlitetest.Open(t))

	hasher, err := crypto.NewPasswordHasher(crypto.AlgoBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	tokens, err := crypto.NewTokenService("test-secret", "", 0)
	require.NoError(t, err)

	mailer := &fakeMailer{}
	tasks := NewTaskService(store)

	return &testEnv{
		store:    store,
		accounts: NewAccountService(store, tasks, hasher, tokens, mailer),
		tasks:    tasks,
		tokens:   tokens,
		mailer:   mailer,
	}
}

func signupRequest(username, email string) model.CreateUserRequest {
	return model.CreateUserRequest{
		Name:        "Ana",
		Username:    username,
		Password:    "password123",
		Email:       email,
		PhoneNumber: "11999999999",
	}
}

func (e *testEnv) signup(t *testing.T, username, email string) string {
	t.Helper()
	resp, err := e.accounts.Create(context.Background(), signupRequest(username, email))
	require.NoError(t, err)
	return resp.ID
}

var errMailDown = errors.New("smtp unavailable")

// blockingMailer never delivers; it returns when ctx is done.
type blockingMailer struct{}

func (blockingMailer) Send(ctx context.Context, _ mail.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

// gatedHasher pauses the first Hash call until release is closed and
// signals entered once that call has started.
type gatedHasher struct {
	Hasher
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedHasher(h Hasher) *gatedHasher {
	return &gatedHasher{
		Hasher:  h,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (h *gatedHasher) Hash(password string) (string, error) {
	h.once.Do(func() { close(h.entered) })
	<-h.release
	return h.Hasher.Hash(password)
}
