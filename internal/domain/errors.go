package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDuplicateEmail        = errors.New("email already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidTransition     = errors.New("invalid session transition")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)
