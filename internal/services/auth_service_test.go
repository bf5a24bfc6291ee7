package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

func signup(email string) models.SignupRequest {
	return models.SignupRequest{Email: email, Password: "secret123", Name: "Test User"}
}

func TestSignUpFirstAccountIsAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.auth.SignUp(ctx, signup("admin@beyond-wm.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second, err := env.auth.SignUp(ctx, signup("user@beyond-wm.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSignUpFirstAccountAdminRegardlessOfEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	u, err := env.auth.SignUp(context.Background(), signup("someone@beyondgm.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestSignUpAllowListedEmailIsAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.auth.SignUp(ctx, signup("first@beyond-wm.com"))
	require.NoError(t, err)

	u, err := env.auth.SignUp(ctx, signup("admin@beyondgm.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestSignUpRejectsForeignDomainBeforeWriting(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	u, err := env.auth.SignUp(ctx, signup("someone@gmail.com"))
	assert.Nil(t, u)
	var ae *models.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Message, "beyond-wm.com")

	n, err := env.users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, err = env.users.GetAccountByEmail(ctx, "someone@gmail.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// the next allowed signup is still the first account
	first, err := env.auth.SignUp(ctx, signup("user@beyond-wm.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.auth.SignUp(ctx, models.SignupRequest{Email: "a@beyond-wm.com", Password: "123", Name: "A"})
	assert.True(t, models.IsValidationError(err))

	_, err = env.auth.SignUp(ctx, models.SignupRequest{Email: "a@beyond-wm.com", Password: "secret123", Name: " "})
	assert.True(t, models.IsValidationError(err))

	_, err = env.auth.SignUp(ctx, signup("a@beyond-wm.com"))
	require.NoError(t, err)
	_, err = env.auth.SignUp(ctx, signup("A@beyond-wm.com"))
	assert.True(t, models.IsValidationError(err), "duplicate e-mail")
}

func TestSignUpSendsWelcomeEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	mailer := new(MockEmailService)
	mailer.On("SendWelcomeEmail", "new@beyond-wm.com", "Test User").Return(errors.New("smtp down"))

	auth := NewAuthService(env.users, AuthOptions{JWTSecret: []byte("s"), Policy: testPolicy(), Welcome: mailer})
	u, err := auth.SignUp(context.Background(), signup("new@beyond-wm.com"))
	require.NoError(t, err, "mail failure does not fail signup")
	assert.Equal(t, "new@beyond-wm.com", u.Email)
	mailer.AssertExpectations(t)
}

func TestSignUpTransportFailure(t *testing.T) {
	auth := NewAuthService(repositories.NewUserRepository(brokenKV{}), AuthOptions{JWTSecret: []byte("s"), Policy: testPolicy()})
	_, err := auth.SignUp(context.Background(), signup("a@beyond-wm.com"))
	assert.True(t, models.IsTransportError(err))
}

func TestSignInAndCurrentSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.auth.SignUp(ctx, signup("admin@beyond-wm.com"))
	require.NoError(t, err)

	sess, err := env.auth.SignIn(ctx, "admin@beyond-wm.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, models.RoleAdmin, sess.Identity.Role)
	assert.Equal(t, env.clock.Now().Add(time.Hour), sess.Expires)

	id, err := env.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Identity.UserID, id.UserID)
	assert.Equal(t, "admin@beyond-wm.com", id.Email)
	assert.NotEmpty(t, id.SessionID)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.auth.SignUp(ctx, signup("admin@beyond-wm.com"))
	require.NoError(t, err)

	_, err = env.auth.SignIn(ctx, "admin@beyond-wm.com", "wrong-password")
	assert.True(t, models.IsAuthError(err))
	_, err = env.auth.SignIn(ctx, "ghost@beyond-wm.com", "secret123")
	assert.True(t, models.IsAuthError(err))
}

func TestCurrentSessionRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.login(t, "admin@beyond-wm.com")
	require.NotNil(t, id)

	_, err := env.auth.CurrentSession(ctx, "not-a-jwt")
	assert.True(t, models.IsAuthError(err))

	other := NewAuthService(env.users, AuthOptions{JWTSecret: []byte("other-secret"), Policy: testPolicy(), Now: env.clock.Now})
	sess, err := other.SignIn(ctx, "admin@beyond-wm.com", "secret123")
	require.NoError(t, err)
	_, err = env.auth.CurrentSession(ctx, sess.Token)
	assert.True(t, models.IsAuthError(err), "signed with a different secret")
}

func TestCurrentSessionExpires(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.auth.SignUp(ctx, signup("admin@beyond-wm.com"))
	require.NoError(t, err)
	sess, err := env.auth.SignIn(ctx, "admin@beyond-wm.com", "secret123")
	require.NoError(t, err)

	env.clock.Advance(time.Hour + time.Minute)
	_, err = env.auth.CurrentSession(ctx, sess.Token)
	assert.True(t, models.IsAuthError(err))
}

func TestSignOutEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.auth.SignUp(ctx, signup("admin@beyond-wm.com"))
	require.NoError(t, err)
	sess, err := env.auth.SignIn(ctx, "admin@beyond-wm.com", "secret123")
	require.NoError(t, err)
	id, err := env.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, env.auth.SignOut(ctx, id))
	_, err = env.auth.CurrentSession(ctx, sess.Token)
	assert.True(t, models.IsAuthError(err))

	assert.NoError(t, env.auth.SignOut(ctx, nil))
}

func TestCurrentSessionReadsRoleFromAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.login(t, "admin@beyond-wm.com")
	_, err := env.auth.SignUp(ctx, signup("user@beyond-wm.com"))
	require.NoError(t, err)
	sess, err := env.auth.SignIn(ctx, "user@beyond-wm.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, sess.Identity.Role)

	require.NoError(t, env.gateway.SetUserRole(ctx, admin, sess.Identity.UserID, models.RoleAdmin))

	id, err := env.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role, "promotion applies to the live session")
}

func TestHashPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	h, err := env.auth.HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", h)
	assert.Regexp(t, `^\$2[aby]\$`, h)
}
