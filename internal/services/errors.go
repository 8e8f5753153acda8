package services

import "errors"

var (
	// ErrNotFound means the addressed entity does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the caller is authenticated but does not own the entity.
	ErrForbidden = errors.New("action not allowed for this user")
	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated means the bearer token is missing, malformed, expired or revoked.
	ErrUnauthenticated = errors.New("unauthenticated")
)
