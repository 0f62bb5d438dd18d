package mcp

import (
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
)

type SignupParams struct {
	Email    string `json:"email" jsonschema:"account email, stored lower-cased"`
	Password string `json:"password" jsonschema:"at least 6 characters"`
	Name     string `json:"name,omitempty" jsonschema:"display name"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenParams is embedded by tools that act on a session. An empty token
// falls back to the bearer header, then to the active session.
type TokenParams struct {
	Token string `json:"token,omitempty" jsonschema:"session token; defaults to the active session"`
}

type CreateTicketParams struct {
	TokenParams
	UserID      string          `json:"user_id,omitempty" jsonschema:"owner id; defaults to the caller"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty" jsonschema:"at most 500 characters"`
	Status      ticket.Status   `json:"status" jsonschema:"open, in_progress or closed"`
	Priority    ticket.Priority `json:"priority" jsonschema:"low, medium or high"`
}

type UpdateTicketParams struct {
	TokenParams
	ID          string           `json:"id"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *ticket.Status   `json:"status,omitempty"`
	Priority    *ticket.Priority `json:"priority,omitempty"`
}

type DeleteTicketParams struct {
	TokenParams
	ID string `json:"id"`
}

type DashboardParams struct {
	TokenParams
	Recent int `json:"recent,omitempty" jsonschema:"number of recent tickets, default 5"`
}

type AuthResponse struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

type WhoamiResponse struct {
	User user.Profile `json:"user"`
}

type TicketsResponse struct {
	Tickets []ticket.Ticket `json:"tickets"`
}

type TicketResponse struct {
	Ticket ticket.Ticket `json:"ticket"`
}

type DeleteTicketResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
