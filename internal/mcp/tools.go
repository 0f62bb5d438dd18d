package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type tools struct {
	backend     Backend
	recentLimit int
	logger      *slog.Logger
}

func registerTools(server *sdkmcp.Server, t *tools) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "signup",
		Description: "Create an account and make it the active session",
	}, t.signup)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "login",
		Description: "Log in with email and password and make it the active session",
	}, t.login)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "logout",
		Description: "Clear the active session",
	}, t.logout)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Return the user behind the session token",
	}, t.whoami)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_tickets",
		Description: "List the caller's tickets in creation order",
	}, t.listTickets)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_ticket",
		Description: "Create a ticket owned by the caller",
	}, t.createTicket)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_ticket",
		Description: "Change fields of one of the caller's tickets; omitted fields are kept",
	}, t.updateTicket)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_ticket",
		Description: "Delete one of the caller's tickets",
	}, t.deleteTicket)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "dashboard",
		Description: "Ticket counts per status and the most recent tickets",
	}, t.dashboard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sample_tickets",
		Description: "Read-only demo tickets; no session needed",
	}, t.sampleTickets)
}

func (t *tools) signup(ctx context.Context, _ *sdkmcp.CallToolRequest, in SignupParams) (*sdkmcp.CallToolResult, AuthResponse, error) {
	if err := user.ValidateSignup(in.Email, in.Password); err != nil {
		return nil, AuthResponse{}, toolError(err)
	}
	res, err := t.backend.Signup(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return nil, AuthResponse{}, toolError(err)
	}
	return nil, AuthResponse{User: res.Profile, Token: res.Token}, nil
}

func (t *tools) login(ctx context.Context, _ *sdkmcp.CallToolRequest, in LoginParams) (*sdkmcp.CallToolResult, AuthResponse, error) {
	if err := user.ValidateLogin(in.Email, in.Password); err != nil {
		return nil, AuthResponse{}, toolError(err)
	}
	res, err := t.backend.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, AuthResponse{}, toolError(err)
	}
	return nil, AuthResponse{User: res.Profile, Token: res.Token}, nil
}

func (t *tools) logout(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, LogoutResponse, error) {
	if err := t.backend.Logout(ctx); err != nil {
		return nil, LogoutResponse{}, toolError(err)
	}
	return nil, LogoutResponse{LoggedOut: true}, nil
}

func (t *tools) whoami(ctx context.Context, _ *sdkmcp.CallToolRequest, in TokenParams) (*sdkmcp.CallToolResult, WhoamiResponse, error) {
	token, err := t.token(ctx, in)
	if err != nil {
		return nil, WhoamiResponse{}, toolError(err)
	}
	u, err := t.backend.VerifySession(ctx, token)
	if err != nil {
		return nil, WhoamiResponse{}, t.sessionError(ctx, token, err)
	}
	return nil, WhoamiResponse{User: u.Profile()}, nil
}

func (t *tools) listTickets(ctx context.Context, _ *sdkmcp.CallToolRequest, in TokenParams) (*sdkmcp.CallToolResult, TicketsResponse, error) {
	token, err := t.token(ctx, in)
	if err != nil {
		return nil, TicketsResponse{}, toolError(err)
	}
	tickets, err := t.backend.ListTickets(ctx, token)
	if err != nil {
		return nil, TicketsResponse{}, t.sessionError(ctx, token, err)
	}
	return nil, TicketsResponse{Tickets: tickets}, nil
}

func (t *tools) createTicket(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateTicketParams) (*sdkmcp.CallToolResult, TicketResponse, error) {
	token, err := t.token(ctx, in.TokenParams)
	if err != nil {
		return nil, TicketResponse{}, toolError(err)
	}

	draft := ticket.Draft{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if err := ticket.ValidateDraft(draft); err != nil {
		return nil, TicketResponse{}, toolError(err)
	}
	// The form fills the owner from the signed-in user; do the same here.
	if draft.UserID == "" {
		u, err := t.backend.VerifySession(ctx, token)
		if err != nil {
			return nil, TicketResponse{}, t.sessionError(ctx, token, err)
		}
		draft.UserID = u.ID
	}

	created, err := t.backend.CreateTicket(ctx, draft, token)
	if err != nil {
		return nil, TicketResponse{}, t.sessionError(ctx, token, err)
	}
	return nil, TicketResponse{Ticket: created}, nil
}

func (t *tools) updateTicket(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateTicketParams) (*sdkmcp.CallToolResult, TicketResponse, error) {
	token, err := t.token(ctx, in.TokenParams)
	if err != nil {
		return nil, TicketResponse{}, toolError(err)
	}

	patch := ticket.Patch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if err := ticket.ValidatePatch(patch); err != nil {
		return nil, TicketResponse{}, toolError(err)
	}

	updated, err := t.backend.UpdateTicket(ctx, in.ID, patch, token)
	if err != nil {
		return nil, TicketResponse{}, t.sessionError(ctx, token, err)
	}
	return nil, TicketResponse{Ticket: updated}, nil
}

func (t *tools) deleteTicket(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteTicketParams) (*sdkmcp.CallToolResult, DeleteTicketResponse, error) {
	token, err := t.token(ctx, in.TokenParams)
	if err != nil {
		return nil, DeleteTicketResponse{}, toolError(err)
	}
	if err := t.backend.DeleteTicket(ctx, in.ID, token); err != nil {
		return nil, DeleteTicketResponse{}, t.sessionError(ctx, token, err)
	}
	return nil, DeleteTicketResponse{ID: in.ID, Deleted: true}, nil
}

func (t *tools) dashboard(ctx context.Context, _ *sdkmcp.CallToolRequest, in DashboardParams) (*sdkmcp.CallToolResult, ticket.Summary, error) {
	token, err := t.token(ctx, in.TokenParams)
	if err != nil {
		return nil, ticket.Summary{}, toolError(err)
	}
	recent := in.Recent
	if recent <= 0 {
		recent = t.recentLimit
	}
	summary, err := t.backend.Dashboard(ctx, token, recent)
	if err != nil {
		return nil, ticket.Summary{}, t.sessionError(ctx, token, err)
	}
	return nil, summary, nil
}

func (t *tools) sampleTickets(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, TicketsResponse, error) {
	samples, err := t.backend.SampleTickets(ctx)
	if err != nil {
		return nil, TicketsResponse{}, toolError(err)
	}
	return nil, TicketsResponse{Tickets: samples}, nil
}

// token picks the session token for a call: the explicit argument, then the
// HTTP bearer header, then the backend's active session.
func (t *tools) token(ctx context.Context, in TokenParams) (string, error) {
	if in.Token != "" {
		return in.Token, nil
	}
	if token := tokenFromContext(ctx); token != "" {
		return token, nil
	}
	token, err := t.backend.ActiveToken(ctx)
	if errors.Is(err, session.ErrNoToken) {
		return "", nil
	}
	return token, err
}

// sessionError clears the active session when err says the token is no longer
// usable, then maps err for the client.
func (t *tools) sessionError(ctx context.Context, token string, err error) error {
	if session.IsSessionError(err) {
		if clearErr := t.backend.ClearStaleSession(ctx, token); clearErr != nil && t.logger != nil {
			t.logger.Warn("clearing stale session", "error", clearErr)
		}
	}
	return toolError(err)
}

func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
