package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Bartabas/job-tracker/internal/domain"
)

func (s *Store) InsertApplication(ctx context.Context, a domain.Application) (int64, error) {
	if a.Status == "" {
		a.Status = domain.StatusApplied
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO job_applications
  (company, position, location, application_date, status, job_url, description,
   salary_range, contact_person, contact_email, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		a.Company, a.Position, a.Location, a.ApplicationDate, string(a.Status),
		a.JobURL, a.Description, a.SalaryRange, a.ContactPerson, a.ContactEmail,
		a.Notes,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert application: %w", err)
	}
	return res.LastInsertId()
}

// UpdateApplicationStatus applies a status transition and bumps updated_at to
// the caller's clock.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status domain.Status, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("update application %d: invalid status %q", id, status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_applications SET status = ?, updated_at = ? WHERE id = ?;`,
		string(status), now.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update application %d: no such record", id)
	}
	return nil
}

// FindApplicationByContactDomain returns the application whose contact email
// contains the given domain, or nil when none matches. When several records
// correlate, the most recently updated one wins; that keeps the choice
// deterministic instead of leaning on insertion order.
func (s *Store) FindApplicationByContactDomain(ctx context.Context, emailDomain string) (*domain.Application, error) {
	emailDomain = strings.TrimSpace(strings.ToLower(emailDomain))
	if emailDomain == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, company, position, location, application_date, status, job_url,
       description, salary_range, contact_person, contact_email, notes,
       created_at, updated_at
FROM job_applications
WHERE contact_email LIKE '%' || ? || '%'
ORDER BY updated_at DESC, id DESC
LIMIT 1;`, emailDomain)

	a, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find application by domain %q: %w", emailDomain, err)
	}
	return &a, nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (domain.Application, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, company, position, location, application_date, status, job_url,
       description, salary_range, contact_person, contact_email, notes,
       created_at, updated_at
FROM job_applications
WHERE id = ?;`, id)
	return scanApplication(row)
}

func scanApplication(r rowScanner) (domain.Application, error) {
	var a domain.Application
	var status, createdAt, updatedAt string
	err := r.Scan(&a.ID, &a.Company, &a.Position, &a.Location, &a.ApplicationDate,
		&status, &a.JobURL, &a.Description, &a.SalaryRange, &a.ContactPerson,
		&a.ContactEmail, &a.Notes, &createdAt, &updatedAt)
	if err != nil {
		return domain.Application{}, err
	}
	a.Status = domain.Status(status)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}
