package provisioning

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/roles"
)

func newTestBulk() (*Bulk, *identity.MemoryProvider) {
	svc, provider, _ := newTestService()
	b := NewBulk(svc)
	b.batchDelay = 0
	return b, provider
}

func validRow(i int) Row {
	return Row{
		FirstName: "Membre",
		LastName:  fmt.Sprintf("Numero%d", i),
		Email:     fmt.Sprintf("membre%d@example.org", i),
		Role:      roles.RoleBenevole,
	}
}

func TestBulkRun(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed valid, invalid and duplicate rows", func(t *testing.T) {
		b, provider := newTestBulk()

		// 5 of the 100 emails already exist at the provider.
		for i := 0; i < 5; i++ {
			_, err := provider.Create(ctx, fmt.Sprintf("membre%d@example.org", i), "pw", "A", "B",
				identity.Metadata{RoleID: roles.DefaultRoleID})
			require.NoError(t, err)
		}

		rows := make([]Row, 0, 100)
		for i := 0; i < 90; i++ {
			rows = append(rows, validRow(i))
		}
		for i := 90; i < 100; i++ {
			row := validRow(i)
			row.Email = "not-an-email"
			rows = append(rows, row)
		}

		result, err := b.Run(ctx, roles.RolePresident, rows)
		require.NoError(t, err)

		assert.Equal(t, 85, result.Created)
		assert.Equal(t, 15, result.Failed)
		assert.Len(t, result.Errors, 15)
		assert.Equal(t, Summary{Total: 100, Valid: 90, Invalid: 10}, result.Summary)
		assert.Equal(t, result.Summary.Total, result.Created+result.Failed)
		assert.Equal(t, 90, provider.Count())
	})

	t.Run("rejects more than MaxRows", func(t *testing.T) {
		b, provider := newTestBulk()

		rows := make([]Row, MaxRows+1)
		for i := range rows {
			rows[i] = validRow(i)
		}

		_, err := b.Run(ctx, roles.RolePresident, rows)
		assert.ErrorIs(t, err, ErrTooManyRows)
		assert.Zero(t, provider.Count())
	})

	t.Run("rows above actor level fail without aborting siblings", func(t *testing.T) {
		b, provider := newTestBulk()

		tooHigh := validRow(0)
		tooHigh.Role = roles.RoleChefPole
		rows := []Row{tooHigh, validRow(1), validRow(2)}

		result, err := b.Run(ctx, roles.RoleChefPole, rows)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "row 1")
		assert.Equal(t, 2, provider.Count())
	})

	t.Run("unknown role fails the row", func(t *testing.T) {
		b, _ := newTestBulk()

		bad := validRow(0)
		bad.Role = "grand_chef"

		result, err := b.Run(ctx, roles.RolePresident, []Row{bad})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Errors[0], "grand_chef")
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		b, _ := newTestBulk()

		result, err := b.Run(ctx, roles.RolePresident, nil)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Zero(t, result.Failed)
		assert.Empty(t, result.Errors)
	})

	t.Run("cancellation keeps partial progress and accounts every row", func(t *testing.T) {
		b, provider := newTestBulk()

		cctx, cancel := context.WithCancel(ctx)
		// Cancel during the pause after the first batch of 10.
		b.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}

		rows := make([]Row, 30)
		for i := range rows {
			rows[i] = validRow(i)
		}

		result, err := b.Run(cctx, roles.RolePresident, rows)
		require.NoError(t, err)

		assert.Equal(t, 10, result.Created)
		assert.Equal(t, 20, result.Failed)
		assert.Equal(t, result.Summary.Total, result.Created+result.Failed)
		// Identities from the completed batch are kept.
		assert.Equal(t, 10, provider.Count())
		for _, msg := range result.Errors {
			assert.Contains(t, msg, "cancelled")
		}
	})

	t.Run("pauses between batches", func(t *testing.T) {
		b, _ := newTestBulk()
		b.batchDelay = DefaultBatchDelay

		var pauses int
		b.sleep = func(ctx context.Context, d time.Duration) error {
			assert.Equal(t, DefaultBatchDelay, d)
			pauses++
			return nil
		}

		rows := make([]Row, 25)
		for i := range rows {
			rows[i] = validRow(i)
		}

		result, err := b.Run(ctx, roles.RolePresident, rows)
		require.NoError(t, err)
		assert.Equal(t, 25, result.Created)
		// 3 batches of at most 10 rows, so 2 pauses.
		assert.Equal(t, 2, pauses)
	})
}
