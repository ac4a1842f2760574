// Package auth implements registration, login and bearer token resolution.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
)

// DefaultTokenTTL is how long a login token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ServiceIdentityPrefix marks identities authenticated by a static API key.
const ServiceIdentityPrefix = "service:"

// Service handles accounts and sessions.
type Service struct {
	users    UserRepository
	sessions SessionStore
	ttl      time.Duration
	apiKeys  []string
	cost     int
	now      func() time.Time
}

// New creates an auth service. ttl <= 0 means DefaultTokenTTL.
func New(users UserRepository, sessions SessionStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithAPIKeys accepts static keys for machine clients. The n-th key (1-based)
// authenticates as "service:<n>". Empty keys are ignored.
func (s *Service) WithAPIKeys(keys []string) *Service {
	s.apiKeys = s.apiKeys[:0]
	for _, k := range keys {
		if k != "" {
			s.apiKeys = append(s.apiKeys, k)
		}
	}
	return s
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password required: %w", domain.ErrInvalidInput)
	}
	email, err := domuser.NormalizeEmail(email)
	if err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := domuser.ValidatePassword(password); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return fmt.Errorf("password too long: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.users.CreateUser(ctx, domuser.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	logpkg.FromContext(ctx).Info("User registered", zap.String("email", email))
	return nil
}

// Login verifies credentials and issues a bearer token. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (domuser.Session, error) {
	email, err := domuser.NormalizeEmail(email)
	if err != nil {
		return domuser.Session{}, domain.ErrInvalidCredentials
	}

	u, err := s.users.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domuser.Session{}, domain.ErrInvalidCredentials
		}
		return domuser.Session{}, fmt.Errorf("get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domuser.Session{}, domain.ErrInvalidCredentials
	}

	sess := domuser.Session{
		Token:     uuid.NewString(),
		Email:     u.Email,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return domuser.Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Authenticate resolves a bearer token to an identity.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	for i, k := range s.apiKeys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(k)) == 1 {
			return ServiceIdentityPrefix + strconv.Itoa(i+1), nil
		}
	}

	identity, err := s.sessions.LookupSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return identity, nil
}
