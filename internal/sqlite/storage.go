package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fixfast/mockdesk/internal/repository"
)

// Storage implements repository.Storage on the kv_entries table
type Storage struct {
	db *DB
}

// NewStorage creates a new Storage
func NewStorage(db *DB) *Storage {
	return &Storage{db: db}
}

// Get retrieves the value stored at key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE entry_key = ?
	`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}

	return value, nil
}

// Set inserts or replaces the value stored at key
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (entry_key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(entry_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set entry %q: %w", key, err)
	}

	return nil
}

// Delete removes the entry at key; missing keys are ignored
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete entry %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_key FROM kv_entries ORDER BY entry_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}

	return keys, nil
}
