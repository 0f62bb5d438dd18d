package ticket

import "errors"

var (
	// ErrTicketNotFound indicates the ticket doesn't exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrUnauthorized indicates the caller does not own the ticket.
	ErrUnauthorized = errors.New("unauthorized: you do not own this ticket")
	// ErrUserIDMismatch indicates the draft names an owner other than the caller.
	ErrUserIDMismatch = errors.New("user id mismatch")
	// ErrInvalidInput indicates the ticket fields fail validation.
	ErrInvalidInput = errors.New("invalid ticket input")
)
