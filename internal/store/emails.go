package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Bartabas/job-tracker/internal/domain"
)

// UpsertEmail stores a fetched message keyed by its message id. Re-upserting
// the same id refreshes category/processed on the existing row instead of
// inserting a duplicate. Reports whether the row was newly inserted. now
// stamps created_at; the caller owns the clock.
func (s *Store) UpsertEmail(ctx context.Context, m domain.EmailMessage, now time.Time) (id int64, inserted bool, err error) {
	if m.MessageID == "" {
		return 0, false, fmt.Errorf("upsert email: missing message id")
	}

	var existing int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM email_messages WHERE message_id = ? LIMIT 1;`,
		m.MessageID,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		inserted = true
	case err != nil:
		return 0, false, fmt.Errorf("upsert email: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO email_messages (sender, recipient, subject, body, email_date, message_id, email_type, processed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(message_id) DO UPDATE SET
  email_type = excluded.email_type,
  processed = excluded.processed;
`,
		m.Sender, m.Recipient, m.Subject, m.Body,
		m.Date.UTC().Format(time.RFC3339),
		m.MessageID, m.Category, boolToInt(m.Processed),
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false, fmt.Errorf("upsert email: %w", err)
	}

	if !inserted {
		return existing, false, nil
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM email_messages WHERE message_id = ? LIMIT 1;`,
		m.MessageID,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("upsert email: %w", err)
	}
	return id, true, nil
}

// SetEmailOutcome records the result of a reconciliation step for a stored
// message.
func (s *Store) SetEmailOutcome(ctx context.Context, id int64, category string, processed bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_messages SET email_type = ?, processed = ? WHERE id = ?;`,
		category, boolToInt(processed), id,
	)
	if err != nil {
		return fmt.Errorf("set email outcome: %w", err)
	}
	return nil
}

func (s *Store) GetEmail(ctx context.Context, id int64) (domain.EmailMessage, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, sender, recipient, subject, body, email_date, message_id, email_type, processed
FROM email_messages
WHERE id = ?;`, id)
	return scanEmail(row)
}

// ListEmails returns the most recent stored messages, newest first.
func (s *Store) ListEmails(ctx context.Context, limit int) ([]domain.EmailMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, sender, recipient, subject, body, email_date, message_id, email_type, processed
FROM email_messages
ORDER BY email_date DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmailMessage
	for rows.Next() {
		m, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(r rowScanner) (domain.EmailMessage, error) {
	var m domain.EmailMessage
	var dateStr string
	var processed int
	err := r.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Subject, &m.Body,
		&dateStr, &m.MessageID, &m.Category, &processed)
	if err != nil {
		return domain.EmailMessage{}, err
	}
	m.Date, _ = time.Parse(time.RFC3339, dateStr)
	m.Processed = processed != 0
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
