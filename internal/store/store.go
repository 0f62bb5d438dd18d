// Package store maps the mock backend's collections and session slot onto a
// key/value storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fixfast/mockdesk/internal/domain/ticket"
	"github.com/fixfast/mockdesk/internal/domain/user"
	"github.com/fixfast/mockdesk/internal/repository"
)

// Storage keys, shared with the browser builds of the app.
const (
	KeyUsers         = "ticketapp_users"
	KeyTickets       = "ticketapp_tickets"
	KeySampleTickets = "sample_tickets"
	KeySession       = "ticketapp_session"
)

// Store gives typed access to the persisted collections.
type Store struct {
	storage repository.Storage
}

// New creates a store over storage.
func New(storage repository.Storage) *Store {
	return &Store{storage: storage}
}

// Init creates the user and ticket collections and seeds the sample tickets,
// each only when its key is absent. Running it twice is harmless.
func (s *Store) Init(ctx context.Context, now time.Time) error {
	seeds := []struct {
		key   string
		value any
	}{
		{KeyUsers, []user.User{}},
		{KeyTickets, []ticket.Ticket{}},
		{KeySampleTickets, ticket.Samples(now)},
	}
	for _, seed := range seeds {
		exists, err := s.exists(ctx, seed.key)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := s.put(ctx, seed.key, seed.value); err != nil {
			return err
		}
	}
	return nil
}

// Users returns the stored users in insertion order.
func (s *Store) Users(ctx context.Context) ([]user.User, error) {
	return loadList[user.User](ctx, s.storage, KeyUsers)
}

// SaveUsers replaces the user collection.
func (s *Store) SaveUsers(ctx context.Context, users []user.User) error {
	if users == nil {
		users = []user.User{}
	}
	return s.put(ctx, KeyUsers, users)
}

// Tickets returns every user-owned ticket in insertion order.
func (s *Store) Tickets(ctx context.Context) ([]ticket.Ticket, error) {
	return loadList[ticket.Ticket](ctx, s.storage, KeyTickets)
}

// SaveTickets replaces the ticket collection.
func (s *Store) SaveTickets(ctx context.Context, tickets []ticket.Ticket) error {
	if tickets == nil {
		tickets = []ticket.Ticket{}
	}
	return s.put(ctx, KeyTickets, tickets)
}

// SampleTickets returns the read-only demo set.
func (s *Store) SampleTickets(ctx context.Context) ([]ticket.Ticket, error) {
	return loadList[ticket.Ticket](ctx, s.storage, KeySampleTickets)
}

// ActiveSession returns the token in the session slot, or "" when empty.
func (s *Store) ActiveSession(ctx context.Context) (string, error) {
	raw, err := s.storage.Get(ctx, KeySession)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}
	return string(raw), nil
}

// SetActiveSession records token as the active session.
func (s *Store) SetActiveSession(ctx context.Context, token string) error {
	if err := s.storage.Set(ctx, KeySession, []byte(token)); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// ClearActiveSession empties the session slot.
func (s *Store) ClearActiveSession(ctx context.Context) error {
	if err := s.storage.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.storage.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.storage.Set(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func loadList[T any](ctx context.Context, storage repository.Storage, key string) ([]T, error) {
	raw, err := storage.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
