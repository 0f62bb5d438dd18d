package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a backend error to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrInvalidInput), errors.Is(err, ticket.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, session.ErrNoToken):
		return http.StatusUnauthorized, "no_token"
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, ticket.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, ticket.ErrUserIDMismatch):
		return http.StatusForbidden, "user_id_mismatch"
	case errors.Is(err, ticket.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found"
	case errors.Is(err, user.ErrUserAlreadyExists):
		return http.StatusConflict, "user_already_exists"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
