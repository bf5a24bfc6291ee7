package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eb5tracker/internal/models"
)

func TestRequire(t *testing.T) {
	actions := []Action{
		ActionCreateInvestor, ActionDeleteInvestor, ActionEditInvestor, ActionChangeStage,
		ActionEditNotes, ActionEditTemplate, ActionChangeRole, ActionListUsers,
	}
	for _, a := range actions {
		assert.NoError(t, Require(models.RoleAdmin, a), a)

		err := Require(models.RoleUser, a)
		assert.True(t, models.IsForbiddenError(err), a)
	}
	assert.True(t, models.IsForbiddenError(Require(models.Role("guest"), ActionEditNotes)))
}

func TestReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly(models.RoleUser))
	assert.False(t, IsReadOnly(models.RoleAdmin))
	assert.True(t, Can(models.RoleUser, Action("view investors")))
}

func TestRequireRoleChange(t *testing.T) {
	admin := &models.Identity{UserID: "a1", Role: models.RoleAdmin}
	user := &models.Identity{UserID: "u1", Role: models.RoleUser}

	assert.NoError(t, RequireRoleChange(admin, "u1"))
	assert.True(t, models.IsForbiddenError(RequireRoleChange(admin, "a1")), "self change")
	assert.True(t, models.IsForbiddenError(RequireRoleChange(user, "a1")))
	assert.True(t, models.IsForbiddenError(RequireRoleChange(user, "u1")))
	assert.True(t, models.IsAuthError(RequireRoleChange(nil, "u1")))
}

func TestSignupPolicy(t *testing.T) {
	p := SignupPolicy{
		AllowedDomains: []string{"beyond-wm.com", "beyondgm.com"},
		AdminEmails:    []string{"admin@beyond-wm.com", "admin@beyondgm.com"},
	}

	assert.True(t, p.DomainAllowed("someone@beyond-wm.com"))
	assert.True(t, p.DomainAllowed("Someone@BeyondGM.com"))
	assert.False(t, p.DomainAllowed("someone@gmail.com"))
	assert.False(t, p.DomainAllowed("someone@evil-beyond-wm.com"))
	assert.False(t, p.DomainAllowed("no-at-sign"))

	assert.Equal(t, models.RoleAdmin, p.InitialRole("user@beyond-wm.com", true), "first account")
	assert.Equal(t, models.RoleAdmin, p.InitialRole("ADMIN@beyondgm.com", false), "allow-listed")
	assert.Equal(t, models.RoleUser, p.InitialRole("user@beyond-wm.com", false))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "beyond-wm.com", EmailDomain("a@b@Beyond-WM.com"))
	assert.Equal(t, "", EmailDomain("nobody"))
}
