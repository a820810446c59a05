package services

import "errors"

// Error kinds surfaced by the services. Handlers map these onto HTTP
// statuses; anything that does not match is treated as an internal error
// and its detail is logged rather than returned to the client.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)
