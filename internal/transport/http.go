package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fixfast/mockdesk/internal/backend"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/go-chi/chi/v5"
)

// Backend defines the mock backend operations served over HTTP.
type Backend interface {
	Signup(ctx context.Context, email, password, name string) (backend.AuthResult, error)
	Login(ctx context.Context, email, password string) (backend.AuthResult, error)
	Logout(ctx context.Context) error
	VerifySession(ctx context.Context, token string) (*user.User, error)
	ClearStaleSession(ctx context.Context, token string) error
	ListTickets(ctx context.Context, token string) ([]ticket.Ticket, error)
	CreateTicket(ctx context.Context, draft ticket.Draft, token string) (ticket.Ticket, error)
	UpdateTicket(ctx context.Context, id string, patch ticket.Patch, token string) (ticket.Ticket, error)
	DeleteTicket(ctx context.Context, id, token string) error
	Dashboard(ctx context.Context, token string, recent int) (ticket.Summary, error)
	SampleTickets(ctx context.Context) ([]ticket.Ticket, error)
}

// Config wires the HTTP server.
type Config struct {
	Backend Backend
	// MCP, when set, is mounted at /mcp.
	MCP         http.Handler
	CookieName  string
	AuthLimit   RateLimitConfig
	RecentLimit int
	Logger      *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	backend     Backend
	cookieName  string
	recentLimit int
	logger      *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	srv := &Server{
		backend:     cfg.Backend,
		cookieName:  cookieName,
		recentLimit: cfg.RecentLimit,
		logger:      cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(cfg.Logger))

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(TokenMiddleware(cookieName))

		r.Group(func(r chi.Router) {
			r.Use(RateLimitByIP(cfg.AuthLimit, cfg.Logger))
			r.Post("/auth/signup", srv.handleSignup)
			r.Post("/auth/login", srv.handleLogin)
		})
		r.Post("/auth/logout", srv.handleLogout)
		r.Get("/auth/me", srv.handleMe)

		r.Get("/tickets", srv.handleListTickets)
		r.Post("/tickets", srv.handleCreateTicket)
		r.Patch("/tickets/{id}", srv.handleUpdateTicket)
		r.Delete("/tickets/{id}", srv.handleDeleteTicket)

		r.Get("/dashboard", srv.handleDashboard)
		r.Get("/samples", srv.handleSamples)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireSessionCookie(cookieName))
		r.Get("/dashboard", srv.handlePage)
		r.Get("/tickets", srv.handlePage)
	})

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handlePage acknowledges a gated page request. Rendering lives in the
// front ends.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": r.URL.Path})
}
