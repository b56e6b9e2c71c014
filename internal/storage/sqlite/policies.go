// ABOUTME: Policy ledger storage operations for SQLite
// ABOUTME: Updates close the active row and insert a new one in a single transaction
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// PolicyStore handles the versioned policy ledger
type PolicyStore struct {
	db  *DB
	now func() time.Time
}

// NewPolicyStore creates a new PolicyStore
func NewPolicyStore(db *DB) *PolicyStore {
	return &PolicyStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ActivePolicies returns the current value of every key
func (s *PolicyStore) ActivePolicies(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT policy_key, policy_value
		FROM policies
		WHERE effective_to IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("query active policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// ListActive returns the active rows ordered by key
func (s *PolicyStore) ListActive(ctx context.Context) ([]models.Policy, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, policy_key, policy_value, effective_from, effective_to, updated_by
		FROM policies
		WHERE effective_to IS NULL
		ORDER BY policy_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPolicies(rows)
}

// History returns every version of a key, oldest first
func (s *PolicyStore) History(ctx context.Context, key string) ([]models.Policy, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, policy_key, policy_value, effective_from, effective_to, updated_by
		FROM policies
		WHERE policy_key = ?
		ORDER BY id ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query policy history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPolicies(rows)
}

// AsOf returns the values that were in effect at t
func (s *PolicyStore) AsOf(ctx context.Context, t time.Time) (map[string]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT policy_key, policy_value
		FROM policies
		WHERE effective_from <= ? AND (effective_to IS NULL OR effective_to > ?)
	`, t.UnixNano(), t.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query policies as of %s: %w", t.Format(time.RFC3339), err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Set makes value the active value for key, closing any previous active row
func (s *PolicyStore) Set(ctx context.Context, key, value, updatedBy string) (*models.Policy, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("policy key cannot be empty")
	}
	if updatedBy == "" {
		updatedBy = "system"
	}

	p := &models.Policy{
		Key:           key,
		Value:         value,
		EffectiveFrom: s.now(),
		UpdatedBy:     updatedBy,
	}

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE policies SET effective_to = ?
			WHERE policy_key = ? AND effective_to IS NULL
		`, p.EffectiveFrom.UnixNano(), key); err != nil {
			return fmt.Errorf("close active policy %s: %w", key, err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO policies (policy_key, policy_value, effective_from, effective_to, updated_by)
			VALUES (?, ?, ?, NULL, ?)
		`, key, value, p.EffectiveFrom.UnixNano(), updatedBy)
		if err != nil {
			return fmt.Errorf("insert policy %s: %w", key, err)
		}

		p.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SeedDefaults inserts a value for every key that has no active row. Returns the number seeded.
func (s *PolicyStore) SeedDefaults(ctx context.Context, defaults map[string]string) (int, error) {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seeded := 0
	now := s.now().UnixNano()
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO policies (policy_key, policy_value, effective_from, effective_to, updated_by)
				SELECT ?, ?, ?, NULL, 'seed'
				WHERE NOT EXISTS (
					SELECT 1 FROM policies WHERE policy_key = ? AND effective_to IS NULL
				)
			`, key, defaults[key], now, key)
			if err != nil {
				return fmt.Errorf("seed policy %s: %w", key, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				seeded++
			}
		}
		return nil
	})
	return seeded, err
}

func scanPolicies(rows *sql.Rows) ([]models.Policy, error) {
	var out []models.Policy
	for rows.Next() {
		var (
			p    models.Policy
			from int64
			to   sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Key, &p.Value, &from, &to, &p.UpdatedBy); err != nil {
			return nil, err
		}
		p.EffectiveFrom = fromNanos(from)
		p.EffectiveTo = fromNullNanos(to)
		out = append(out, p)
	}
	return out, rows.Err()
}
