// ABOUTME: Lead capture storage operations for SQLite
// ABOUTME: Leads are callback requests from consenting sessions
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// LeadStore handles lead capture persistence
type LeadStore struct {
	db *DB
}

// NewLeadStore creates a new LeadStore
func NewLeadStore(db *DB) *LeadStore {
	return &LeadStore{db: db}
}

// Save inserts a lead and sets its ID
func (s *LeadStore) Save(ctx context.Context, lead *models.LeadCapture) error {
	if lead.Status == "" {
		lead.Status = "new"
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO lead_captures (session_id, name, phone, preferred_time, reason, consent, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.SessionID, nullString(lead.Name), nullString(lead.Phone), nullString(lead.PreferredTime),
		nullString(lead.Reason), boolInt(lead.Consent), lead.Status, lead.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	lead.ID, err = res.LastInsertId()
	return err
}

// ListSince returns leads created at or after since, oldest first
func (s *LeadStore) ListSince(ctx context.Context, since time.Time) ([]models.LeadCapture, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, session_id, name, phone, preferred_time, reason, consent, status, created_at
		FROM lead_captures
		WHERE created_at >= ?
		ORDER BY id ASC
	`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []models.LeadCapture
	for rows.Next() {
		var (
			l                              models.LeadCapture
			name, phone, preferred, reason sql.NullString
			consent                        int
			createdAt                      int64
		)
		if err := rows.Scan(&l.ID, &l.SessionID, &name, &phone, &preferred, &reason,
			&consent, &l.Status, &createdAt); err != nil {
			return nil, err
		}
		l.Name = name.String
		l.Phone = phone.String
		l.PreferredTime = preferred.String
		l.Reason = reason.String
		l.Consent = consent != 0
		l.CreatedAt = fromNanos(createdAt)
		leads = append(leads, l)
	}

	return leads, rows.Err()
}

// Count returns the number of stored leads
func (s *LeadStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM lead_captures`).Scan(&n)
	return n, err
}
