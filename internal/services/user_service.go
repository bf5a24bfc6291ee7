package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"eb5tracker/internal/authz"
	"eb5tracker/internal/models"
)

// LoadUsers lists the user directory. Admin only; there is no local fallback.
func (g *Gateway) LoadUsers(ctx context.Context, identity *models.Identity) ([]models.User, error) {
	if identity == nil {
		return nil, &models.AuthError{Message: "authentication required"}
	}
	if err := authz.Require(identity.Role, authz.ActionListUsers); err != nil {
		return nil, err
	}
	users, err := g.users.ListUsers(ctx)
	if err != nil {
		return nil, g.transportErr("load users", backendRemote, err)
	}
	return users, nil
}

// SetUserRole updates the account and the directory entry together, or neither.
func (g *Gateway) SetUserRole(ctx context.Context, identity *models.Identity, targetID string, role models.Role) error {
	if err := authz.RequireRoleChange(identity, targetID); err != nil {
		return err
	}
	if !role.Valid() {
		return &models.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}
	err := g.users.UpdateRole(ctx, targetID, role)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	if err != nil {
		return g.transportErr("update role", backendRemote, err)
	}
	log.Printf("[users][role] by=%s target=%s role=%s", identity.UserID, targetID, role)
	return nil
}
