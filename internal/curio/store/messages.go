package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/museumops/curio/internal/curio/memory"
)

// DefaultHistoryLimit bounds ListMessages when no limit is given.
const DefaultHistoryLimit = 200

// SaveMessage appends m to the log of the conversation key.
func (s *Store) SaveMessage(ctx context.Context, key string, m memory.Message) error {
	var opts sql.NullString
	if len(m.Options) > 0 {
		b, err := json.Marshal(m.Options)
		if err != nil {
			return fmt.Errorf("failed to marshal message options: %w", err)
		}
		opts = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_key, author, text, options_json, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, key, string(m.Author), m.Text, opts, m.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// ListMessages returns the most recent messages of a conversation, oldest
// first.
func (s *Store) ListMessages(ctx context.Context, key string, limit int) ([]memory.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, text, options_json, ts FROM (
			SELECT seq, id, author, text, options_json, ts
			FROM messages
			WHERE conversation_key = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []memory.Message
	for rows.Next() {
		var (
			m      memory.Message
			author string
			opts   sql.NullString
		)
		if err := rows.Scan(&m.ID, &author, &m.Text, &opts, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Author = memory.Author(author)
		if opts.Valid {
			if err := json.Unmarshal([]byte(opts.String), &m.Options); err != nil {
				return nil, fmt.Errorf("failed to decode options of message %s: %w", m.ID, err)
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}

// ConversationKeys returns the keys of every conversation with messages.
func (s *Store) ConversationKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT conversation_key FROM messages ORDER BY conversation_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan conversation key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
