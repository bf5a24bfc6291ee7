package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the directory entry listed to admins.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is the identity provider's record. Role here is authoritative.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"password_hash"` // stored in the KV record only; handlers return DirectoryEntry()
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Account) DirectoryEntry() User {
	return User{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, CreatedAt: a.CreatedAt}
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

type Session struct {
	Token    string    `json:"access_token"`
	Identity Identity  `json:"user"`
	Expires  time.Time `json:"expires_at"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type RoleChangeRequest struct {
	Role Role `json:"role" binding:"required"`
}
