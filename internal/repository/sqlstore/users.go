package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// CreateUser stores a new account. A second registration of one email yields domain.ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, u domuser.User) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING`),
		u.Email, u.PasswordHash, toNanos(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", u.Email, domain.ErrUserExists)
	}
	return nil
}

// GetUser returns an account by normalized email.
func (s *Store) GetUser(ctx context.Context, email string) (domuser.User, error) {
	var (
		u         domuser.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT email, password_hash, created_at FROM users WHERE email = ?`), email).
		Scan(&u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domuser.User{}, fmt.Errorf("%s: %w", email, domain.ErrUserNotFound)
	}
	if err != nil {
		return domuser.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromNanos(createdAt)
	return u, nil
}

// CreateSession stores a token until its expiry.
func (s *Store) CreateSession(ctx context.Context, sess domuser.Session) error {
	if !sess.ExpiresAt.After(s.now()) {
		return fmt.Errorf("session already expired: %w", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO sessions (token, email, expires_at) VALUES (?, ?, ?)`),
		sess.Token, sess.Email, toNanos(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// LookupSession resolves a token to its identity. Unknown or expired tokens
// yield domain.ErrUnauthorized; expired rows are removed on sight.
func (s *Store) LookupSession(ctx context.Context, token string) (string, error) {
	var (
		email     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT email, expires_at FROM sessions WHERE token = ?`), token).
		Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	if !fromNanos(expiresAt).After(s.now()) {
		_, _ = s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE token = ?`), token)
		return "", domain.ErrUnauthorized
	}
	return email, nil
}
