package membership

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresStore(db), mock, db
}

var appColumns = []string{
	"id", "first_name", "last_name", "email", "whatsapp", "motivations",
	"status", "reviewed_by", "reviewed_at", "rejection_reason", "created_at",
}

func TestPostgresStoreInsert(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	now := time.Now().UTC()
	app := &Application{
		ID: "app-1", FirstName: "Alice", LastName: "Martin",
		Email: "alice@x.com", Whatsapp: "+336", Motivations: "help",
		Status: StatusPending, CreatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO membership_applications`).
		WithArgs("app-1", "Alice", "Martin", "alice@x.com", "+336", "help", StatusPending, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Insert(context.Background(), app))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreFindByID(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(appColumns).AddRow(
			"app-1", "Alice", "Martin", "alice@x.com", "", "help",
			StatusRejected, "reviewer-1", now, "incomplete", now)

		mock.ExpectQuery(`SELECT .+ FROM membership_applications\s+WHERE id = \$1`).
			WithArgs("app-1").
			WillReturnRows(rows)

		app, err := store.FindByID(context.Background(), "app-1")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, app.Status)
		assert.Equal(t, "reviewer-1", app.ReviewedBy)
		assert.Equal(t, "incomplete", app.RejectionReason)
		require.NotNil(t, app.ReviewedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM membership_applications\s+WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreFindActiveByEmail(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	t.Run("active application exists", func(t *testing.T) {
		rows := sqlmock.NewRows(appColumns).AddRow(
			"app-2", "Bob", "Durand", "bob@x.com", "", "join",
			StatusPending, nil, nil, nil, time.Now())

		mock.ExpectQuery(`SELECT .+ FROM membership_applications\s+WHERE lower\(email\) = lower\(\$1\) AND status != \$2`).
			WithArgs("bob@x.com", StatusRejected).
			WillReturnRows(rows)

		app, err := store.FindActiveByEmail(context.Background(), "bob@x.com")
		require.NoError(t, err)
		require.NotNil(t, app)
		assert.Equal(t, "app-2", app.ID)
		assert.Empty(t, app.ReviewedBy)
		assert.Nil(t, app.ReviewedAt)
	})

	t.Run("none", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM membership_applications`).
			WithArgs("free@x.com", StatusRejected).
			WillReturnError(sql.ErrNoRows)

		app, err := store.FindActiveByEmail(context.Background(), "free@x.com")
		require.NoError(t, err)
		assert.Nil(t, app)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateStatus(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	now := time.Now().UTC()

	t.Run("pending row updated", func(t *testing.T) {
		mock.ExpectExec(`UPDATE membership_applications`).
			WithArgs(StatusApproved, "reviewer-1", now, "", "app-1", StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateStatus(context.Background(), "app-1", StatusApproved, "reviewer-1", "", now)
		assert.NoError(t, err)
	})

	t.Run("already terminal", func(t *testing.T) {
		mock.ExpectExec(`UPDATE membership_applications`).
			WithArgs(StatusApproved, "reviewer-1", now, "", "app-1", StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Zero rows: the store re-reads to distinguish reviewed from missing.
		rows := sqlmock.NewRows(appColumns).AddRow(
			"app-1", "A", "B", "a@x.com", "", "m",
			StatusRejected, "reviewer-0", now, "no", now)
		mock.ExpectQuery(`SELECT .+ FROM membership_applications\s+WHERE id = \$1`).
			WithArgs("app-1").
			WillReturnRows(rows)

		err := store.UpdateStatus(context.Background(), "app-1", StatusApproved, "reviewer-1", "", now)
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE membership_applications`).
			WithArgs(StatusRejected, "reviewer-1", now, "why", "ghost", StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .+ FROM membership_applications\s+WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		err := store.UpdateStatus(context.Background(), "ghost", StatusRejected, "reviewer-1", "why", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCounts(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM membership_applications WHERE status = \$1`).
		WithArgs(StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := store.CountByStatus(context.Background(), StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	cutoff := time.Now().Add(-48 * time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM membership_applications WHERE status = \$1 AND created_at < \$2`).
		WithArgs(StatusPending, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	stale, err := store.CountPendingOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, stale)

	require.NoError(t, mock.ExpectationsWereMet())
}
