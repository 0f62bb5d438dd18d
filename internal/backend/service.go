// Package backend implements the mock ticketing API: accounts, the single
// active session slot and per-user ticket CRUD over a key/value store.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fixfast/mockdesk/internal/domain/session"
	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/fixfast/mockdesk/internal/idgen"
	"github.com/fixfast/mockdesk/internal/store"
)

// AuthResult is returned by signup and login.
type AuthResult struct {
	user.Profile
	Token string `json:"token"`
}

// Service serializes every read-modify-persist sequence behind one mutex and
// waits the simulated latency only after the mutex is released.
type Service struct {
	store  *store.Store
	opts   Options
	logger *slog.Logger

	mu sync.Mutex
}

// NewService creates a backend over st.
func NewService(st *store.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = idgen.New
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, opts: opts, logger: logger}
}

// Init creates missing collections and seeds the sample tickets.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Init(ctx, s.now()); err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	return nil
}

// Signup registers a new account and makes it the active session.
func (s *Service) Signup(ctx context.Context, email, password, name string) (AuthResult, error) {
	res, err := s.signup(ctx, email, password, name)
	wait(s.opts.AuthLatency)
	return res, err
}

func (s *Service) signup(ctx context.Context, email, password, name string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.Users(ctx)
	if err != nil {
		return AuthResult{}, err
	}

	normalized := user.NormalizeEmail(email)
	for _, u := range users {
		if u.Email == normalized {
			return AuthResult{}, user.ErrUserAlreadyExists
		}
	}

	created := user.User{
		ID:        s.opts.NewID(idgen.UserPrefix),
		Email:     normalized,
		Password:  password,
		Name:      name,
		CreatedAt: s.now(),
	}
	token := session.TokenFor(created.ID)

	if err := s.store.SaveUsers(ctx, append(users, created)); err != nil {
		return AuthResult{}, err
	}
	if err := s.store.SetActiveSession(ctx, token); err != nil {
		if rbErr := s.store.SaveUsers(ctx, users); rbErr != nil {
			s.logger.Error("rolling back signup", "user_id", created.ID, "error", rbErr)
		}
		return AuthResult{}, err
	}

	s.logger.Info("user signed up", "user_id", created.ID)
	return AuthResult{Profile: created.Profile(), Token: token}, nil
}

// Login matches the lower-cased email and exact password and makes the user
// the active session. Unknown emails and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	res, err := s.login(ctx, email, password)
	wait(s.opts.AuthLatency)
	return res, err
}

func (s *Service) login(ctx context.Context, email, password string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.Users(ctx)
	if err != nil {
		return AuthResult{}, err
	}

	normalized := user.NormalizeEmail(email)
	for _, u := range users {
		if u.Email != normalized || u.Password != password {
			continue
		}
		token := session.TokenFor(u.ID)
		if err := s.store.SetActiveSession(ctx, token); err != nil {
			return AuthResult{}, err
		}
		s.logger.Debug("user logged in", "user_id", u.ID)
		return AuthResult{Profile: u.Profile(), Token: token}, nil
	}
	return AuthResult{}, user.ErrInvalidCredentials
}

// Logout empties the active session slot.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ClearActiveSession(ctx)
}

// VerifySession resolves a token to the full stored user.
func (s *Service) VerifySession(ctx context.Context, token string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verify(ctx, token)
}

func (s *Service) verify(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, session.ErrNoToken
	}
	userID, ok := session.UserIDFromToken(token)
	if !ok {
		return nil, session.ErrInvalidToken
	}

	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, session.ErrInvalidToken
}

// ActiveToken returns the token held in the session slot.
func (s *Service) ActiveToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.ActiveSession(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", session.ErrNoToken
	}
	return token, nil
}

// CurrentUser resolves the active session. A slot whose token no longer
// names a user is cleared before ErrInvalidToken is returned.
func (s *Service) CurrentUser(ctx context.Context) (user.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.ActiveSession(ctx)
	if err != nil {
		return user.Profile{}, err
	}
	u, err := s.verify(ctx, token)
	if errors.Is(err, session.ErrInvalidToken) {
		if clearErr := s.store.ClearActiveSession(ctx); clearErr != nil {
			return user.Profile{}, clearErr
		}
		return user.Profile{}, err
	}
	if err != nil {
		return user.Profile{}, err
	}
	return u.Profile(), nil
}

// IsAuthenticated reports whether the active session resolves to a user.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// ClearStaleSession empties the session slot if it still holds token. Callers
// use it after a verified operation failed with a session error.
func (s *Service) ClearStaleSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.ActiveSession(ctx)
	if err != nil {
		return err
	}
	if active == "" || active != token {
		return nil
	}
	s.logger.Debug("clearing stale session")
	return s.store.ClearActiveSession(ctx)
}

// ListTickets returns the caller's tickets in storage order.
func (s *Service) ListTickets(ctx context.Context, token string) ([]ticket.Ticket, error) {
	tickets, err := s.listTickets(ctx, token)
	if err != nil {
		return nil, err
	}
	wait(s.opts.TicketLatency)
	return tickets, nil
}

func (s *Service) listTickets(ctx context.Context, token string) ([]ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Tickets(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]ticket.Ticket, 0, len(all))
	for _, t := range all {
		if t.UserID == caller.ID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// CreateTicket stores a new ticket for the caller. The draft must name the
// caller as its owner.
func (s *Service) CreateTicket(ctx context.Context, draft ticket.Draft, token string) (ticket.Ticket, error) {
	created, err := s.createTicket(ctx, draft, token)
	if err != nil {
		return ticket.Ticket{}, err
	}
	wait(s.opts.TicketLatency)
	return created, nil
}

func (s *Service) createTicket(ctx context.Context, draft ticket.Draft, token string) (ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.verify(ctx, token)
	if err != nil {
		return ticket.Ticket{}, err
	}
	if draft.UserID == "" || draft.UserID != caller.ID {
		return ticket.Ticket{}, ticket.ErrUserIDMismatch
	}

	tickets, err := s.store.Tickets(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	created := ticket.Ticket{
		ID:          s.opts.NewID(idgen.TicketPrefix),
		UserID:      draft.UserID,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		CreatedAt:   s.now(),
	}
	if err := s.store.SaveTickets(ctx, append(tickets, created)); err != nil {
		return ticket.Ticket{}, err
	}
	return created, nil
}

// UpdateTicket merges patch over one of the caller's tickets.
func (s *Service) UpdateTicket(ctx context.Context, id string, patch ticket.Patch, token string) (ticket.Ticket, error) {
	updated, err := s.updateTicket(ctx, id, patch, token)
	if err != nil {
		return ticket.Ticket{}, err
	}
	wait(s.opts.TicketLatency)
	return updated, nil
}

func (s *Service) updateTicket(ctx context.Context, id string, patch ticket.Patch, token string) (ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, tickets, idx, err := s.ownedTicket(ctx, id, token)
	if err != nil {
		return ticket.Ticket{}, err
	}

	if patch.TouchesIdentity() {
		s.logger.Warn("ticket patch carries identity fields",
			"ticket_id", id, "user_id", caller.ID, "ignored", s.opts.ProtectIdentity)
	}

	updated := patch.Apply(tickets[idx], s.opts.ProtectIdentity)
	next := make([]ticket.Ticket, len(tickets))
	copy(next, tickets)
	next[idx] = updated

	if err := s.store.SaveTickets(ctx, next); err != nil {
		return ticket.Ticket{}, err
	}
	return updated, nil
}

// DeleteTicket removes one of the caller's tickets.
func (s *Service) DeleteTicket(ctx context.Context, id string, token string) error {
	if err := s.deleteTicket(ctx, id, token); err != nil {
		return err
	}
	wait(s.opts.TicketLatency)
	return nil
}

func (s *Service) deleteTicket(ctx context.Context, id string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, tickets, idx, err := s.ownedTicket(ctx, id, token)
	if err != nil {
		return err
	}

	remaining := make([]ticket.Ticket, 0, len(tickets)-1)
	remaining = append(remaining, tickets[:idx]...)
	remaining = append(remaining, tickets[idx+1:]...)
	return s.store.SaveTickets(ctx, remaining)
}

// ownedTicket verifies the caller and locates the first ticket with id,
// checking that the caller owns it.
func (s *Service) ownedTicket(ctx context.Context, id, token string) (*user.User, []ticket.Ticket, int, error) {
	caller, err := s.verify(ctx, token)
	if err != nil {
		return nil, nil, -1, err
	}
	tickets, err := s.store.Tickets(ctx)
	if err != nil {
		return nil, nil, -1, err
	}
	for i, t := range tickets {
		if t.ID != id {
			continue
		}
		if t.UserID != caller.ID {
			return nil, nil, -1, ticket.ErrUnauthorized
		}
		return caller, tickets, i, nil
	}
	return nil, nil, -1, ticket.ErrTicketNotFound
}

// SampleTickets returns the read-only demo tickets.
func (s *Service) SampleTickets(ctx context.Context) ([]ticket.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.SampleTickets(ctx)
}

// Dashboard summarizes the caller's tickets, listing up to recent of them
// newest first. A non-positive recent uses ticket.DefaultRecentLimit.
func (s *Service) Dashboard(ctx context.Context, token string, recent int) (ticket.Summary, error) {
	if recent <= 0 {
		recent = ticket.DefaultRecentLimit
	}
	tickets, err := s.ListTickets(ctx, token)
	if err != nil {
		return ticket.Summary{}, err
	}
	return ticket.Summarize(tickets, recent), nil
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// wait sleeps for the simulated latency. It always runs to completion, even
// when the caller's context is cancelled; the outcome is already decided.
func wait(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
