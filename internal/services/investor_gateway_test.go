package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

func TestGatewayUnauthenticatedFallsBackToDemo(t *testing.T) {
	env := newTestEnv(t, nil)
	list, err := env.gateway.LoadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.DemoInvestors(), list)
}

func TestGatewayUnauthenticatedCorruptLocalDegrades(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.local.SetItem(repositories.LocalInvestorsKey, []byte("{not json")))

	list, err := env.gateway.LoadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestGatewayLocalSaveUpsertsAndDeleteRemoves(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	demo := models.DemoInvestors()
	require.NoError(t, env.gateway.SaveAll(ctx, nil, demo))

	changed := demo[1]
	changed.Notes = "changed"
	require.NoError(t, env.gateway.SaveAll(ctx, nil, []models.Investor{changed}))

	list, err := env.gateway.LoadAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 4, "omitted records survive")
	assert.Equal(t, "changed", list[1].Notes)
	assert.Equal(t, demo[0].ID, list[0].ID, "order kept")

	require.NoError(t, env.gateway.DeleteOne(ctx, nil, demo[0].ID))
	list, err = env.gateway.LoadAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	for _, inv := range list {
		require.NoError(t, env.gateway.DeleteOne(ctx, nil, inv.ID))
	}
	list, err = env.gateway.LoadAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list, "an emptied collection does not bring the demo back")
}

func TestGatewayScopesByIdentity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := &models.Identity{UserID: "alice", Role: models.RoleAdmin}
	bob := &models.Identity{UserID: "bob", Role: models.RoleAdmin}

	demo := models.DemoInvestors()
	require.NoError(t, env.gateway.SaveAll(ctx, alice, demo[:1]))

	list, err := env.gateway.LoadAll(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = env.gateway.LoadAll(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Wei Chen", list[0].Name)

	local, err := env.gateway.LoadAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, local, 4, "remote writes never touch the local store")

	require.NoError(t, env.gateway.DeleteOne(ctx, bob, demo[0].ID))
	list, err = env.gateway.LoadAll(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 1, "bob cannot delete alice's record")
}

func TestGatewayRemoteFailuresPropagate(t *testing.T) {
	env := newTestEnv(t, nil)
	gw := NewGateway(repositories.NewInvestorRepository(brokenKV{}), repositories.NewUserRepository(brokenKV{}), env.local)
	ctx := context.Background()
	admin := &models.Identity{UserID: "a", Role: models.RoleAdmin}

	list, err := gw.LoadAll(ctx, admin)
	assert.Nil(t, list)
	assert.True(t, models.IsTransportError(err), "authenticated reads do not degrade to empty")
	assert.ErrorIs(t, err, errBackendDown)

	assert.True(t, models.IsTransportError(gw.SaveAll(ctx, admin, models.DemoInvestors())))
	assert.True(t, models.IsTransportError(gw.DeleteOne(ctx, admin, "1")))

	_, err = gw.LoadUsers(ctx, admin)
	assert.True(t, models.IsTransportError(err))

	// the local path is unaffected by the remote outage
	local, err := gw.LoadAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, local, 4)
}

func TestGatewayLoadUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.login(t, "admin@beyond-wm.com")
	user := env.login(t, "user@beyond-wm.com")

	users, err := env.gateway.LoadUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = env.gateway.LoadUsers(ctx, user)
	assert.True(t, models.IsForbiddenError(err))

	_, err = env.gateway.LoadUsers(ctx, nil)
	assert.True(t, models.IsAuthError(err))
}

func TestGatewaySetUserRole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.login(t, "admin@beyond-wm.com")
	user := env.login(t, "user@beyond-wm.com")

	assert.True(t, models.IsForbiddenError(env.gateway.SetUserRole(ctx, user, admin.UserID, models.RoleUser)))
	assert.True(t, models.IsForbiddenError(env.gateway.SetUserRole(ctx, admin, admin.UserID, models.RoleUser)), "no self demotion")
	assert.True(t, models.IsValidationError(env.gateway.SetUserRole(ctx, admin, user.UserID, models.Role("owner"))))
	assert.ErrorIs(t, env.gateway.SetUserRole(ctx, admin, "ghost", models.RoleAdmin), models.ErrNotFound)

	require.NoError(t, env.gateway.SetUserRole(ctx, admin, user.UserID, models.RoleAdmin))

	acc, err := env.users.GetAccountByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, acc.Role)
	users, err := env.gateway.LoadUsers(ctx, admin)
	require.NoError(t, err)
	for _, u := range users {
		if u.ID == user.UserID {
			assert.Equal(t, models.RoleAdmin, u.Role, "directory mirrors the account")
		}
	}
}
