package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eb5tracker/internal/authz"
	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

var errBackendDown = errors.New("connection refused")

// brokenKV fails every call, like an unreachable database.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error)        { return nil, errBackendDown }
func (brokenKV) Set(context.Context, string, []byte) error          { return errBackendDown }
func (brokenKV) MSet(context.Context, []repositories.KVEntry) error { return errBackendDown }
func (brokenKV) Del(context.Context, ...string) error               { return errBackendDown }
func (brokenKV) GetByPrefix(context.Context, string) ([]repositories.KVEntry, error) {
	return nil, errBackendDown
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWelcomeEmail(email, name string) error {
	args := m.Called(email, name)
	return args.Error(0)
}

type MockStageNotifier struct {
	mock.Mock
}

func (m *MockStageNotifier) StageCompleted(inv models.Investor, stage models.Stage, by *models.Identity) error {
	args := m.Called(inv, stage, by)
	return args.Error(0)
}

func testPolicy() authz.SignupPolicy {
	return authz.SignupPolicy{
		AllowedDomains: []string{"beyond-wm.com", "beyondgm.com"},
		AdminEmails:    []string{"admin@beyond-wm.com", "admin@beyondgm.com"},
	}
}

// testEnv is the whole service graph over in-memory stores.
type testEnv struct {
	kv        *repositories.MemoryKV
	local     repositories.LocalStore
	users     repositories.UserRepository
	auth      AuthService
	gateway   *Gateway
	templates TemplateService
	investors InvestorService
	clock     *fakeClock
}

func newTestEnv(t *testing.T, notifier StageNotifier) *testEnv {
	t.Helper()
	local, err := repositories.OpenLocalStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	env := &testEnv{kv: repositories.NewMemoryKV(), local: local, clock: newFakeClock()}
	env.users = repositories.NewUserRepository(env.kv)
	env.auth = NewAuthService(env.users, AuthOptions{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
		Policy:    testPolicy(),
		Now:       env.clock.Now,
	})
	env.gateway = NewGateway(repositories.NewInvestorRepository(env.kv), env.users, local)
	env.templates = NewTemplateService(local)
	env.investors = NewInvestorService(env.gateway, env.templates, InvestorOptions{
		Notifier:      notifier,
		AnonymousRole: models.RoleUser,
		Now:           env.clock.Now,
	})
	return env
}

// login signs up (when needed) and signs in, returning the resolved identity.
func (e *testEnv) login(t *testing.T, email string) *models.Identity {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.GetAccountByEmail(ctx, email); errors.Is(err, models.ErrNotFound) {
		_, err := e.auth.SignUp(ctx, models.SignupRequest{Email: email, Password: "secret123", Name: email})
		require.NoError(t, err)
	}
	sess, err := e.auth.SignIn(ctx, email, "secret123")
	require.NoError(t, err)
	id, err := e.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)
	return id
}

func weiChen() models.InvestorFields {
	return models.InvestorFields{Name: "Wei Chen", Email: "wchen@example.com", Country: "China", InvestmentAmount: 800000}
}
