package auth

import (
	"context"

	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// UserRepository stores accounts keyed by normalized email.
type UserRepository interface {
	CreateUser(ctx context.Context, u domuser.User) error
	GetUser(ctx context.Context, email string) (domuser.User, error)
}

// SessionStore keeps issued bearer tokens until they expire.
type SessionStore interface {
	CreateSession(ctx context.Context, s domuser.Session) error
	LookupSession(ctx context.Context, token string) (string, error)
}
