package common

import "errors"

var (
	// store errors
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInvalidArgument   = errors.New("invalid argument")

	// auth errors
	ErrInvalidCredentials = errors.New("invalid username/password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
)
