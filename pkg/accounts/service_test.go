package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trefle-asso/trefle/pkg/audit"
	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/notify"
	"github.com/trefle-asso/trefle/pkg/roles"
)

func newTestAccounts() (*Service, *identity.MemoryProvider, *audit.Recorder) {
	provider := identity.NewMemoryProvider()
	rec := &audit.Recorder{}
	engine := authz.NewEngine(roles.NewDefaultRegistry())
	return NewService(engine, provider, &notify.LogSender{}, rec), provider, rec
}

func seedIdentity(t *testing.T, provider *identity.MemoryProvider, email, roleID string) *identity.Identity {
	t.Helper()
	id, err := provider.Create(context.Background(), email, "pw", "Test", "User",
		identity.Metadata{RoleID: roleID})
	require.NoError(t, err)
	return id
}

func TestAuthorize(t *testing.T) {
	svc, _, _ := newTestAccounts()

	assert.True(t, svc.Authorize(roles.RolePresident, roles.PermRolesAssign))
	assert.False(t, svc.Authorize(roles.RoleBenevole, roles.PermRolesAssign))
	assert.False(t, svc.Authorize("unknown_role", roles.PermMembersView))
}

func TestAssignRole(t *testing.T) {
	ctx := context.Background()

	t.Run("president promotes a member", func(t *testing.T) {
		svc, provider, rec := newTestAccounts()
		president := seedIdentity(t, provider, "pres@example.org", roles.RolePresident)
		target := seedIdentity(t, provider, "m@example.org", roles.RoleMembreActif)

		actor := Actor{IdentityID: president.ID, RoleID: roles.RolePresident}
		require.NoError(t, svc.AssignRole(ctx, actor, target.ID, roles.RoleMentor))

		updated, err := provider.Get(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, roles.RoleMentor, updated.Metadata.RoleID)

		events := rec.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventTypeRoleAssign, events[0].EventType)
		assert.Equal(t, roles.RoleMembreActif, events[0].Metadata["old_role"])
		assert.Equal(t, roles.RoleMentor, events[0].Metadata["new_role"])
	})

	t.Run("denial leaves role untouched and audits", func(t *testing.T) {
		svc, provider, rec := newTestAccounts()
		chef := seedIdentity(t, provider, "chef@example.org", roles.RoleChefPole)
		admin := seedIdentity(t, provider, "admin@example.org", roles.RoleAdminGeneral)

		actor := Actor{IdentityID: chef.ID, RoleID: roles.RoleChefPole}
		err := svc.AssignRole(ctx, actor, admin.ID, roles.RoleBenevole)
		assert.True(t, authz.IsDenied(err))

		unchanged, err := provider.Get(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, roles.RoleAdminGeneral, unchanged.Metadata.RoleID)

		events := rec.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventTypeAccessDenied, events[0].EventType)
		assert.Equal(t, audit.EventStatusDenied, events[0].Status)
	})

	t.Run("self-assignment denied regardless of rank", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		president := seedIdentity(t, provider, "pres@example.org", roles.RolePresident)

		actor := Actor{IdentityID: president.ID, RoleID: roles.RolePresident}
		err := svc.AssignRole(ctx, actor, president.ID, roles.RoleAdminGeneral)
		assert.True(t, authz.IsDenied(err))
	})

	t.Run("unknown target", func(t *testing.T) {
		svc, _, _ := newTestAccounts()

		err := svc.AssignRole(ctx, Actor{IdentityID: "a", RoleID: roles.RolePresident},
			"missing-id", roles.RoleMentor)
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("admin deletes lower-ranked member", func(t *testing.T) {
		svc, provider, rec := newTestAccounts()
		admin := seedIdentity(t, provider, "admin@example.org", roles.RoleAdminGeneral)
		target := seedIdentity(t, provider, "m@example.org", roles.RoleBenevole)

		actor := Actor{IdentityID: admin.ID, RoleID: roles.RoleAdminGeneral}
		require.NoError(t, svc.DeleteAccount(ctx, actor, target.ID))

		_, err := provider.Get(ctx, target.ID)
		assert.ErrorIs(t, err, identity.ErrNotFound)

		events := rec.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventTypeAccountDelete, events[0].EventType)
	})

	t.Run("self-deletion denied", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		admin := seedIdentity(t, provider, "admin@example.org", roles.RoleAdminGeneral)

		actor := Actor{IdentityID: admin.ID, RoleID: roles.RoleAdminGeneral}
		err := svc.DeleteAccount(ctx, actor, admin.ID)
		assert.True(t, authz.IsDenied(err))

		_, err = provider.Get(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("peer deletion denied", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		a := seedIdentity(t, provider, "a@example.org", roles.RoleChefPole)
		b := seedIdentity(t, provider, "b@example.org", roles.RoleChefPole)

		actor := Actor{IdentityID: a.ID, RoleID: roles.RoleChefPole}
		err := svc.DeleteAccount(ctx, actor, b.ID)
		assert.True(t, authz.IsDenied(err))
	})
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates founding president on empty provider", func(t *testing.T) {
		svc, provider, rec := newTestAccounts()

		result, err := svc.Bootstrap(ctx, "fondatrice@example.org", "Claire", "Moreau")
		require.NoError(t, err)
		assert.Equal(t, roles.RolePresident, result.Identity.Metadata.RoleID)
		assert.True(t, result.Identity.Metadata.MustResetPassword)
		assert.NotEmpty(t, result.PlaintextPassword)
		assert.Equal(t, 1, provider.Count())

		events := rec.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventTypeBootstrap, events[0].EventType)
	})

	t.Run("refuses when a president exists", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		seedIdentity(t, provider, "pres@example.org", roles.RolePresident)

		_, err := svc.Bootstrap(ctx, "second@example.org", "S", "T")
		assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
		assert.Equal(t, 1, provider.Count())
	})

	t.Run("refuses when a general administrator exists", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		seedIdentity(t, provider, "admin@example.org", roles.RoleAdminGeneral)

		_, err := svc.Bootstrap(ctx, "late@example.org", "L", "M")
		assert.ErrorIs(t, err, ErrAlreadyBootstrapped)
	})

	t.Run("ordinary members do not block bootstrap", func(t *testing.T) {
		svc, provider, _ := newTestAccounts()
		seedIdentity(t, provider, "membre@example.org", roles.RoleMembreActif)

		result, err := svc.Bootstrap(ctx, "pres@example.org", "P", "Q")
		require.NoError(t, err)
		assert.Equal(t, roles.RolePresident, result.Identity.Metadata.RoleID)
		assert.Equal(t, 2, provider.Count())
	})
}
