package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SyncValue returns a stored Matrix sync value of userID, or "" when none
// was saved.
func (s *Store) SyncValue(ctx context.Context, userID, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM matrix_sync_state WHERE user_id = ? AND key = ?`,
		userID, name,
	).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to load sync value %s: %w", name, err)
	}
	return value, nil
}

// SetSyncValue stores a Matrix sync value of userID, replacing any previous
// one.
func (s *Store) SetSyncValue(ctx context.Context, userID, name, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO matrix_sync_state (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value
	`, userID, name, value); err != nil {
		return fmt.Errorf("failed to save sync value %s: %w", name, err)
	}
	return nil
}
