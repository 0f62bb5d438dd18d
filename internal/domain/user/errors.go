package user

import "errors"

var (
	// ErrUserAlreadyExists indicates the email is already registered.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidInput indicates invalid signup or login input.
	ErrInvalidInput = errors.New("invalid user input")
)
