// Package user holds registered accounts and issued sessions.
package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// User is a registered account. The email is its identity.
type User struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session binds an opaque bearer token to an identity until it expires.
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// NormalizeEmail trims and lowercases an address and checks that it parses.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email %q: %w", raw, domain.ErrInvalidInput)
	}
	return email, nil
}

// ValidatePassword checks password strength rules.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required: %w", domain.ErrInvalidInput)
	}
	if len([]rune(password)) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLen, domain.ErrInvalidInput)
	}
	return nil
}
