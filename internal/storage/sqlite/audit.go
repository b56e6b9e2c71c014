// ABOUTME: Audit log storage operations for SQLite
// ABOUTME: Payloads are stored as JSON; entries are never updated
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// AuditStore handles audit log persistence
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends an audit entry
func (s *AuditStore) Record(ctx context.Context, actor, action string, payload map[string]any) error {
	var payloadJSON sql.NullString
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		payloadJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO audit_logs (actor, action, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`, actor, action, payloadJSON, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, actor, action, payload_json, created_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e           models.AuditEntry
			payloadJSON sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &payloadJSON, &createdAt); err != nil {
			return nil, err
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload %d: %w", e.ID, err)
			}
		}
		e.CreatedAt = fromNanos(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
