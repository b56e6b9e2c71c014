// ABOUTME: Conversation turn storage operations for SQLite
// ABOUTME: Turns are insert-only; retention is the only path that removes them
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Append inserts a turn and sets its ID
func (s *TurnStore) Append(ctx context.Context, turn *models.ConversationTurn) error {
	var refsJSON sql.NullString
	if len(turn.References) > 0 {
		b, err := json.Marshal(turn.References)
		if err != nil {
			return fmt.Errorf("marshal references: %w", err)
		}
		refsJSON = sql.NullString{String: string(b), Valid: true}
	}

	var confidence sql.NullFloat64
	if turn.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *turn.Confidence, Valid: true}
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO conversation_turns
			(session_id, channel, role, text, intent, confidence, escalated, references_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.SessionID, string(turn.Channel), string(turn.Role), turn.Text,
		nullString(string(turn.Intent)), confidence, boolInt(turn.Escalated), refsJSON, createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("turn id: %w", err)
	}
	turn.ID = id
	turn.CreatedAt = createdAt
	return nil
}

// ListBySession returns a session's turns in the order they were written
func (s *TurnStore) ListBySession(ctx context.Context, sessionID string) ([]models.ConversationTurn, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, session_id, channel, role, text, intent, confidence, escalated, references_json, created_at
		FROM conversation_turns
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			turn       models.ConversationTurn
			channel    string
			role       string
			intent     sql.NullString
			confidence sql.NullFloat64
			escalated  int
			refsJSON   sql.NullString
			createdAt  int64
		)

		if err := rows.Scan(&turn.ID, &turn.SessionID, &channel, &role, &turn.Text,
			&intent, &confidence, &escalated, &refsJSON, &createdAt); err != nil {
			return nil, err
		}

		turn.Channel = models.Channel(channel)
		turn.Role = models.Role(role)
		turn.Intent = models.Intent(intent.String)
		if confidence.Valid {
			c := confidence.Float64
			turn.Confidence = &c
		}
		turn.Escalated = escalated != 0
		if refsJSON.Valid && refsJSON.String != "" {
			if err := json.Unmarshal([]byte(refsJSON.String), &turn.References); err != nil {
				return nil, fmt.Errorf("unmarshal references for turn %d: %w", turn.ID, err)
			}
		}
		turn.CreatedAt = fromNanos(createdAt)

		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// Count returns the number of stored turns
func (s *TurnStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_turns`).Scan(&n)
	return n, err
}

// CountBefore counts turns created before cutoff
func (s *TurnStore) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_turns WHERE created_at < ?`, cutoff.UnixNano()).Scan(&n)
	return n, err
}

// DeleteBefore removes turns created before cutoff
func (s *TurnStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM conversation_turns WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	return res.RowsAffected()
}
