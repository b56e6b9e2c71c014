// ABOUTME: Session storage operations for SQLite
// ABOUTME: SMS sessions are looked up by the hashed caller number
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/frontdesk/internal/models"
)

// SessionStore handles session persistence
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a session, assigning an ID and timestamp when unset
func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if sess.Channel == "" {
		sess.Channel = models.ChannelWeb
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, channel, consent_to_contact, phone_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, string(sess.Channel), boolInt(sess.ConsentToContact),
		nullString(sess.PhoneHash), sess.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.scanOne(s.db.conn.QueryRowContext(ctx, `
		SELECT id, channel, consent_to_contact, phone_hash, created_at
		FROM sessions
		WHERE id = ?
	`, id))
}

// GetOrCreateByPhone returns the newest SMS session for a phone hash, creating one if none exists
func (s *SessionStore) GetOrCreateByPhone(ctx context.Context, phoneHash string, channel models.Channel) (*models.Session, error) {
	sess, err := s.scanOne(s.db.conn.QueryRowContext(ctx, `
		SELECT id, channel, consent_to_contact, phone_hash, created_at
		FROM sessions
		WHERE phone_hash = ? AND channel = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, phoneHash, string(channel)))
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sess = &models.Session{
		Channel:          channel,
		ConsentToContact: true,
		PhoneHash:        phoneHash,
	}
	if err := s.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetConsent records the caller's consent to be contacted
func (s *SessionStore) SetConsent(ctx context.Context, id string, consent bool) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE sessions SET consent_to_contact = ? WHERE id = ?`, boolInt(consent), id)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of sessions
func (s *SessionStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

func (s *SessionStore) scanOne(row *sql.Row) (*models.Session, error) {
	var (
		sess      models.Session
		channel   string
		consent   int
		phoneHash sql.NullString
		createdAt int64
	)

	err := row.Scan(&sess.ID, &channel, &consent, &phoneHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Channel = models.Channel(channel)
	sess.ConsentToContact = consent != 0
	sess.PhoneHash = phoneHash.String
	sess.CreatedAt = fromNanos(createdAt)
	return &sess, nil
}
