package authz

import (
	"strings"

	"eb5tracker/internal/models"
)

type Action string

const (
	ActionCreateInvestor Action = "create investor"
	ActionDeleteInvestor Action = "delete investor"
	ActionEditInvestor   Action = "edit investor details"
	ActionChangeStage    Action = "change stage status"
	ActionEditNotes      Action = "edit notes"
	ActionEditTemplate   Action = "edit stage template"
	ActionChangeRole     Action = "change user role"
	ActionListUsers      Action = "list users"
)

var adminOnly = map[Action]bool{
	ActionCreateInvestor: true,
	ActionDeleteInvestor: true,
	ActionEditInvestor:   true,
	ActionChangeStage:    true,
	ActionEditNotes:      true,
	ActionEditTemplate:   true,
	ActionChangeRole:     true,
	ActionListUsers:      true,
}

func IsAdmin(role models.Role) bool {
	return role == models.RoleAdmin
}

// IsReadOnly: plain users see everything but change nothing.
func IsReadOnly(role models.Role) bool {
	return !IsAdmin(role)
}

func Can(role models.Role, a Action) bool {
	return !(adminOnly[a] && IsReadOnly(role))
}

// Require returns a ForbiddenError when role may not perform a.
func Require(role models.Role, a Action) error {
	if !Can(role, a) {
		return &models.ForbiddenError{Action: string(a)}
	}
	return nil
}

// RequireRoleChange checks an admin changing someone else's role. Self changes are rejected.
func RequireRoleChange(caller *models.Identity, targetID string) error {
	if caller == nil {
		return &models.AuthError{Message: "authentication required"}
	}
	if err := Require(caller.Role, ActionChangeRole); err != nil {
		return err
	}
	if caller.UserID == targetID {
		return &models.ForbiddenError{Action: string(ActionChangeRole), Reason: "users cannot change their own role"}
	}
	return nil
}

// SignupPolicy decides who may register and which role they get.
type SignupPolicy struct {
	AllowedDomains []string
	AdminEmails    []string
}

func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func (p SignupPolicy) DomainAllowed(email string) bool {
	d := EmailDomain(email)
	if d == "" {
		return false
	}
	for _, allowed := range p.AllowedDomains {
		if strings.EqualFold(d, strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (p SignupPolicy) InitialRole(email string, firstAccount bool) models.Role {
	if firstAccount {
		return models.RoleAdmin
	}
	e := strings.ToLower(strings.TrimSpace(email))
	for _, a := range p.AdminEmails {
		if e == strings.ToLower(strings.TrimSpace(a)) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}
