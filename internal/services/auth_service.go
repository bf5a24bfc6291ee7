package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eb5tracker/internal/authz"
	"eb5tracker/internal/metrics"
	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
	"eb5tracker/internal/utils"
)

const minPasswordLen = 6

// Claims carry no role; CurrentSession reads it from the account.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService interface {
	HashPassword(password string) (string, error)
	SignUp(ctx context.Context, req models.SignupRequest) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, identity *models.Identity) error
	CurrentSession(ctx context.Context, token string) (*models.Identity, error)
}

type AuthOptions struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	Policy    authz.SignupPolicy
	Welcome   EmailService
	Now       func() time.Time
}

type authService struct {
	users   repositories.UserRepository
	secret  []byte
	ttl     time.Duration
	policy  authz.SignupPolicy
	welcome EmailService
	now     func() time.Time
}

func NewAuthService(users repositories.UserRepository, opts AuthOptions) AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	return &authService{
		users:   users,
		secret:  opts.JWTSecret,
		ttl:     opts.TokenTTL,
		policy:  opts.Policy,
		welcome: opts.Welcome,
		now:     opts.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SignUp checks the e-mail domain before touching the store, so a rejected
// request leaves no trace.
func (s *authService) SignUp(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)

	if !s.policy.DomainAllowed(email) {
		log.Printf("[auth][signup] rejected domain email=%q", email)
		return nil, &models.AuthError{Message: fmt.Sprintf(
			"Email must be from an authorized domain: %s", strings.Join(s.policy.AllowedDomains, " or "))}
	}
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Message: "is required"}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &models.ValidationError{Field: "password", Message: fmt.Sprintf("must have at least %d characters", minPasswordLen)}
	}

	if _, err := s.users.GetAccountByEmail(ctx, email); err == nil {
		return nil, &models.ValidationError{Field: "email", Message: "is already registered"}
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, &models.TransportError{Op: "lookup account", Err: err}
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, &models.TransportError{Op: "count users", Err: err}
	}
	role := s.policy.InitialRole(email, count == 0)

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateAccount(ctx, acc); err != nil {
		return nil, &models.TransportError{Op: "create account", Err: err}
	}
	metrics.RecordSignup(string(role))
	log.Printf("[auth][signup] created id=%s role=%s first=%v", acc.ID, role, count == 0)

	if s.welcome != nil {
		if err := s.welcome.SendWelcomeEmail(acc.Email, acc.Name); err != nil {
			// warn but do not fail creation
			log.Printf("[auth][signup] warning: welcome email to %s failed: %v", acc.Email, err)
		}
	}

	u := acc.DirectoryEntry()
	return &u, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	start := s.now()
	email = strings.TrimSpace(email)
	invalid := &models.AuthError{Message: "Invalid email or password"}

	acc, err := s.users.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("[auth][login] unknown email=%q", email)
		return nil, invalid
	}
	if err != nil {
		return nil, &models.TransportError{Op: "lookup account", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		log.Printf("[auth][login] bcrypt mismatch userID=%s", acc.ID)
		return nil, invalid
	}

	sid, err := utils.NewSessionID()
	if err != nil {
		return nil, err
	}
	exp := s.now().Add(s.ttl)
	claims := &Claims{
		UserID: acc.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	if err := s.users.CreateSession(ctx, sid, acc.ID, exp); err != nil {
		return nil, &models.TransportError{Op: "store session", Err: err}
	}
	log.Printf("[auth][login] success userID=%s role=%s took=%s", acc.ID, acc.Role, s.now().Sub(start).Truncate(time.Millisecond))

	return &models.Session{
		Token:    token,
		Identity: models.Identity{UserID: acc.ID, Email: acc.Email, Name: acc.Name, Role: acc.Role, SessionID: sid},
		Expires:  exp,
	}, nil
}

func (s *authService) SignOut(ctx context.Context, identity *models.Identity) error {
	if identity == nil || identity.SessionID == "" {
		return nil
	}
	if err := s.users.DeleteSession(ctx, identity.SessionID); err != nil {
		return &models.TransportError{Op: "delete session", Err: err}
	}
	log.Printf("[auth][logout] userID=%s", identity.UserID)
	return nil
}

// CurrentSession validates the token, checks the session is still live and
// loads the current role from the account.
func (s *authService) CurrentSession(ctx context.Context, token string) (*models.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, &models.AuthError{Message: "Invalid or expired token"}
	}

	uid, exp, err := s.users.GetSession(ctx, claims.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &models.AuthError{Message: "Session has ended"}
	}
	if err != nil {
		return nil, &models.TransportError{Op: "lookup session", Err: err}
	}
	if uid != claims.UserID || s.now().After(exp) {
		return nil, &models.AuthError{Message: "Session has ended"}
	}

	acc, err := s.users.GetAccountByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &models.AuthError{Message: "Account no longer exists"}
	}
	if err != nil {
		return nil, &models.TransportError{Op: "lookup account", Err: err}
	}
	return &models.Identity{UserID: acc.ID, Email: acc.Email, Name: acc.Name, Role: acc.Role, SessionID: claims.ID}, nil
}
