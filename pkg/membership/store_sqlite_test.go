package membership

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

// setupApplicationsDB gives the store a real SQL engine so the queries run
// end to end instead of against recorded expectations.
func setupApplicationsDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE membership_applications (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			whatsapp TEXT,
			motivations TEXT NOT NULL,
			status TEXT NOT NULL,
			reviewed_by TEXT,
			reviewed_at TIMESTAMP,
			rejection_reason TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	require.NoError(t, err)
	return db
}

func TestPostgresStoreLifecycle(t *testing.T) {
	db := setupApplicationsDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	app := &Application{
		ID:          "app-1",
		FirstName:   "Alice",
		LastName:    "Martin",
		Email:       "alice@trefle.example",
		Whatsapp:    "+33612345678",
		Motivations: "I want to join the events team",
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, app))

	t.Run("pending application blocks the email", func(t *testing.T) {
		found, err := store.FindActiveByEmail(ctx, "ALICE@trefle.example")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "app-1", found.ID)
	})

	t.Run("review transition is single shot", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, store.UpdateStatus(ctx, "app-1", StatusApproved, "reviewer-1", "", now))

		err := store.UpdateStatus(ctx, "app-1", StatusRejected, "reviewer-2", "late", now)
		assert.ErrorIs(t, err, ErrAlreadyReviewed)

		found, err := store.FindByID(ctx, "app-1")
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, found.Status)
		assert.Equal(t, "reviewer-1", found.ReviewedBy)
		require.NotNil(t, found.ReviewedAt)
	})

	t.Run("approved application still blocks the email", func(t *testing.T) {
		found, err := store.FindActiveByEmail(ctx, "alice@trefle.example")
		require.NoError(t, err)
		require.NotNil(t, found)
	})
}

func TestPostgresStoreRejectedDoesNotBlock(t *testing.T) {
	db := setupApplicationsDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	app := &Application{
		ID:          "app-1",
		FirstName:   "Bruno",
		LastName:    "Petit",
		Email:       "bruno@trefle.example",
		Motivations: "second try",
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, app))
	require.NoError(t, store.UpdateStatus(ctx, "app-1", StatusRejected, "reviewer-1", "incomplete", time.Now().UTC()))

	found, err := store.FindActiveByEmail(ctx, "bruno@trefle.example")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = store.FindByID(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "incomplete", found.RejectionReason)
}

func TestPostgresStoreCountsSQLite(t *testing.T) {
	db := setupApplicationsDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, age := range []time.Duration{0, 48 * time.Hour, 96 * time.Hour} {
		app := &Application{
			ID:          string(rune('a' + i)),
			FirstName:   "P",
			LastName:    "Q",
			Email:       string(rune('a'+i)) + "@trefle.example",
			Motivations: "m",
			Status:      StatusPending,
			CreatedAt:   base.Add(-age),
		}
		require.NoError(t, store.Insert(ctx, app))
	}

	pending, err := store.CountByStatus(ctx, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	stale, err := store.CountPendingOlderThan(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stale)
}

func TestPostgresStoreUpdateStatusUnknownID(t *testing.T) {
	db := setupApplicationsDB(t)
	store := NewPostgresStore(db)

	err := store.UpdateStatus(context.Background(), "nope", StatusApproved, "r", "", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}
