package services

import "errors"

// Error kinds surfaced by the service layer. Handlers map these to
// HTTP status codes exactly once, at the boundary.
var (
	// ErrInvalidInput marks malformed or missing caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateIdentity marks a user name or email collision.
	ErrDuplicateIdentity = errors.New("username or email already exists")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials marks a failed login or password check.
	// Unknown identifier and wrong password both map here so the
	// response does not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized marks a missing token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken marks a token with a bad signature or structure.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken marks a token past its expiry, or a refresh
	// token superseded by rotation or logout.
	ErrExpiredToken = errors.New("expired token")
)
