package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

const (
	fieldPasswordHash = "password_hash"
	fieldEmail        = "email"
	fieldCreatedAt    = "created_at"
)

// store is the consumer interface for accounts and sessions (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo keeps accounts in hashes keyed by email and sessions in expiring keys.
// Implements usecase/auth.UserRepository and usecase/auth.SessionStore.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a user repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix, now: time.Now}
}

func (r *Repo) userKey(email string) string    { return r.prefix + "user:" + email }
func (r *Repo) sessionKey(token string) string { return r.prefix + "session:" + token }

// CreateUser stores a new account. The password hash field is claimed with HSETNX,
// so concurrent registrations of one email cannot both succeed.
func (r *Repo) CreateUser(ctx context.Context, u domuser.User) error {
	key := r.userKey(u.Email)
	created, err := r.store.HSetNX(ctx, key, fieldPasswordHash, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("hsetnx %s: %w", key, err)
	}
	if !created {
		return fmt.Errorf("%s: %w", u.Email, domain.ErrUserExists)
	}
	err = r.store.HSet(ctx, key, map[string]string{
		fieldEmail:     u.Email,
		fieldCreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// GetUser returns an account by normalized email.
func (r *Repo) GetUser(ctx context.Context, email string) (domuser.User, error) {
	key := r.userKey(email)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domuser.User{}, fmt.Errorf("%s: %w", email, domain.ErrUserNotFound)
		}
		return domuser.User{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	return domuser.User{
		Email:        email,
		PasswordHash: m[fieldPasswordHash],
		CreatedAt:    createdAt,
	}, nil
}

// CreateSession stores a token until its expiry.
func (r *Repo) CreateSession(ctx context.Context, s domuser.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl < time.Second {
		return fmt.Errorf("session already expired: %w", domain.ErrInvalidInput)
	}
	key := r.sessionKey(s.Token)
	if err := r.store.SetWithTTL(ctx, key, []byte(s.Email), ttl); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// LookupSession resolves a token to its identity. Unknown or expired tokens
// yield domain.ErrUnauthorized.
func (r *Repo) LookupSession(ctx context.Context, token string) (string, error) {
	data, err := r.store.Get(ctx, r.sessionKey(token))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return string(data), nil
}
