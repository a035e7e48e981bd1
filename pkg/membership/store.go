package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store persists membership applications.
type Store interface {
	// Insert stores a new application.
	Insert(ctx context.Context, app *Application) error

	// FindByID returns the application or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Application, error)

	// FindActiveByEmail returns the non-rejected application for the email,
	// or (nil, nil) when none exists. Rejected applications do not block a
	// re-submission.
	FindActiveByEmail(ctx context.Context, email string) (*Application, error)

	// UpdateStatus moves a pending application to a terminal status. Returns
	// ErrAlreadyReviewed when the row is no longer pending, ErrNotFound when
	// it does not exist.
	UpdateStatus(ctx context.Context, id string, status Status, reviewedBy, reason string, reviewedAt time.Time) error

	// CountByStatus returns the number of applications in the given status.
	CountByStatus(ctx context.Context, status Status) (int, error)

	// CountPendingOlderThan returns pending applications submitted before the
	// cutoff, for the reminder job.
	CountPendingOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert stores a new application.
func (s *PostgresStore) Insert(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO membership_applications
			(id, first_name, last_name, email, whatsapp, motivations, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		app.ID, app.FirstName, app.LastName, app.Email,
		app.Whatsapp, app.Motivations, app.Status, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// FindByID returns the application or ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Application, error) {
	query := `
		SELECT id, first_name, last_name, email, whatsapp, motivations,
		       status, reviewed_by, reviewed_at, rejection_reason, created_at
		FROM membership_applications
		WHERE id = $1
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// FindActiveByEmail returns the non-rejected application for the email.
func (s *PostgresStore) FindActiveByEmail(ctx context.Context, email string) (*Application, error) {
	query := `
		SELECT id, first_name, last_name, email, whatsapp, motivations,
		       status, reviewed_by, reviewed_at, rejection_reason, created_at
		FROM membership_applications
		WHERE lower(email) = lower($1) AND status != $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, email, StatusRejected))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application by email: %w", err)
	}
	return app, nil
}

// UpdateStatus moves a pending application to a terminal status. The WHERE
// clause on the current status makes the transition single-shot even under
// concurrent reviewers: the second writer matches zero rows.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status, reviewedBy, reason string, reviewedAt time.Time) error {
	query := `
		UPDATE membership_applications
		SET status = $1, reviewed_by = $2, reviewed_at = $3, rejection_reason = $4
		WHERE id = $5 AND status = $6
	`
	result, err := s.db.ExecContext(ctx, query, status, reviewedBy, reviewedAt, reason, id, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the id is unknown or the row already left pending.
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyReviewed
	}
	return nil
}

// CountByStatus returns the number of applications in the given status.
func (s *PostgresStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM membership_applications WHERE status = $1`
	if err := s.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

// CountPendingOlderThan returns pending applications submitted before cutoff.
func (s *PostgresStore) CountPendingOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM membership_applications WHERE status = $1 AND created_at < $2`
	if err := s.db.QueryRowContext(ctx, query, StatusPending, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stale applications: %w", err)
	}
	return count, nil
}

func scanApplication(scanner interface {
	Scan(dest ...interface{}) error
}) (*Application, error) {
	app := &Application{}
	var reviewedBy, reason sql.NullString
	var reviewedAt sql.NullTime

	err := scanner.Scan(
		&app.ID, &app.FirstName, &app.LastName, &app.Email,
		&app.Whatsapp, &app.Motivations,
		&app.Status, &reviewedBy, &reviewedAt, &reason, &app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reviewedBy.Valid {
		app.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	if reason.Valid {
		app.RejectionReason = reason.String
	}
	return app, nil
}
