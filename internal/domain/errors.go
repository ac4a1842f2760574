package domain

import "errors"

var (
	// ErrItemNotFound signals a missing item.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden signals that the caller does not own the resource.
	ErrForbidden = errors.New("not authorized to modify this item")

	// ErrUserExists signals a duplicate registration.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound signals an unknown account. Login reports it as ErrInvalidCredentials.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials signals a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized signals a missing, unknown or expired bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmbedderUnavailable signals that the embedding resource failed to initialize.
	// It is fatal for the process: every later embed call fails with it.
	ErrEmbedderUnavailable = errors.New("embedding model unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
