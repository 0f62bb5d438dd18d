package mcp

import (
	"errors"
	"fmt"

	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unknown errors yield nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrNoToken):
		return &APIError{Code: "NO_TOKEN", Message: "no token provided", RecoveryHint: "Call login or signup first"}
	case errors.Is(err, session.ErrInvalidToken):
		return &APIError{Code: "INVALID_TOKEN", Message: "invalid token", RecoveryHint: "Session cleared; log in again"}
	case errors.Is(err, user.ErrInvalidCredentials):
		return &APIError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	case errors.Is(err, user.ErrUserAlreadyExists):
		return &APIError{Code: "USER_ALREADY_EXISTS", Message: "user already exists", RecoveryHint: "Use login instead"}
	case errors.Is(err, ticket.ErrUserIDMismatch):
		return &APIError{Code: "USER_ID_MISMATCH", Message: "user id mismatch", RecoveryHint: "Omit user_id or pass your own"}
	case errors.Is(err, ticket.ErrTicketNotFound):
		return &APIError{Code: "TICKET_NOT_FOUND", Message: "ticket not found", RecoveryHint: "Check the id with list_tickets"}
	case errors.Is(err, ticket.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: "you do not own this ticket"}
	case errors.Is(err, ticket.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
