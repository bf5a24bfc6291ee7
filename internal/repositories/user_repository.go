package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"eb5tracker/internal/models"
)

const (
	accountPrefix    = "account:"
	accountEmailPref = "account-email:"
	directoryPrefix  = "user:"
	sessionPrefix    = "session:"
)

type UserRepository interface {
	// CreateAccount writes the account, its e-mail index and the directory entry together.
	CreateAccount(ctx context.Context, acc *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateRole rewrites the account and the directory entry in one batch.
	UpdateRole(ctx context.Context, id string, role models.Role) error

	// session helpers
	CreateSession(ctx context.Context, sessionID, userID string, expiresAt time.Time) error
	GetSession(ctx context.Context, sessionID string) (userID string, expiresAt time.Time, err error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type userRepository struct {
	kv KVStore
}

func NewUserRepository(kv KVStore) UserRepository {
	return &userRepository{kv: kv}
}

type sessionRecord struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) CreateAccount(ctx context.Context, acc *models.Account) error {
	accJSON, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	dirJSON, err := json.Marshal(acc.DirectoryEntry())
	if err != nil {
		return err
	}
	idxJSON, err := json.Marshal(acc.ID)
	if err != nil {
		return err
	}
	return r.kv.MSet(ctx, []KVEntry{
		{Key: accountPrefix + acc.ID, Value: accJSON},
		{Key: accountEmailPref + normEmail(acc.Email), Value: idxJSON},
		{Key: directoryPrefix + acc.ID, Value: dirJSON},
	})
}

func (r *userRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	b, err := r.kv.Get(ctx, accountPrefix+id)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{}
	if err := json.Unmarshal(b, acc); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	return acc, nil
}

func (r *userRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	b, err := r.kv.Get(ctx, accountEmailPref+normEmail(email))
	if err != nil {
		return nil, err
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return nil, fmt.Errorf("decode email index: %w", err)
	}
	return r.GetAccountByID(ctx, id)
}

func (r *userRepository) CountUsers(ctx context.Context) (int, error) {
	entries, err := r.kv.GetByPrefix(ctx, directoryPrefix)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	entries, err := r.kv.GetByPrefix(ctx, directoryPrefix)
	if err != nil {
		return nil, err
	}
	res := make([]models.User, 0, len(entries))
	for _, e := range entries {
		var u models.User
		if err := json.Unmarshal(e.Value, &u); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		u.ID = strings.TrimPrefix(e.Key, directoryPrefix)
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	acc, err := r.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	acc.Role = role

	dir := acc.DirectoryEntry()
	if b, err := r.kv.Get(ctx, directoryPrefix+id); err == nil {
		var existing models.User
		if json.Unmarshal(b, &existing) == nil {
			existing.Role = role
			existing.ID = id
			dir = existing
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	accJSON, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	dirJSON, err := json.Marshal(dir)
	if err != nil {
		return err
	}
	return r.kv.MSet(ctx, []KVEntry{
		{Key: accountPrefix + id, Value: accJSON},
		{Key: directoryPrefix + id, Value: dirJSON},
	})
}

// ===== sessions =====

func (r *userRepository) CreateSession(ctx context.Context, sessionID, userID string, expiresAt time.Time) error {
	b, err := json.Marshal(sessionRecord{UserID: userID, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, sessionPrefix+sessionID, b)
}

func (r *userRepository) GetSession(ctx context.Context, sessionID string) (string, time.Time, error) {
	b, err := r.kv.Get(ctx, sessionPrefix+sessionID)
	if err != nil {
		return "", time.Time{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", time.Time{}, fmt.Errorf("decode session: %w", err)
	}
	return rec.UserID, rec.ExpiresAt, nil
}

func (r *userRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.kv.Del(ctx, sessionPrefix+sessionID)
}
