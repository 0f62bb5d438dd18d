package mcp

import (
	"context"
	"log/slog"

	"github.com/fixfast/mockdesk/internal/backend"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Backend defines the mock backend operations exposed as tools.
type Backend interface {
	Signup(ctx context.Context, email, password, name string) (backend.AuthResult, error)
	Login(ctx context.Context, email, password string) (backend.AuthResult, error)
	Logout(ctx context.Context) error
	VerifySession(ctx context.Context, token string) (*user.User, error)
	ActiveToken(ctx context.Context) (string, error)
	ClearStaleSession(ctx context.Context, token string) error
	ListTickets(ctx context.Context, token string) ([]ticket.Ticket, error)
	CreateTicket(ctx context.Context, draft ticket.Draft, token string) (ticket.Ticket, error)
	UpdateTicket(ctx context.Context, id string, patch ticket.Patch, token string) (ticket.Ticket, error)
	DeleteTicket(ctx context.Context, id, token string) error
	Dashboard(ctx context.Context, token string, recent int) (ticket.Summary, error)
	SampleTickets(ctx context.Context) ([]ticket.Ticket, error)
}

// Config contains server configuration.
type Config struct {
	Backend       Backend
	TransportMode string // "stdio" or "http"
	RecentLimit   int
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "mockdesk",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio clients have no headers; tools fall back to the active session.
	if cfg.TransportMode != "stdio" {
		server.AddReceivingMiddleware(bearerTokenMiddleware())
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{
		backend:     cfg.Backend,
		recentLimit: cfg.RecentLimit,
		logger:      cfg.Logger,
	})

	return server
}
