package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trefle-asso/trefle/pkg/roles"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(roles.NewDefaultRegistry())
}

func assertDenied(t *testing.T, err error, reason DenialReason) {
	t.Helper()
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, reason, denied.Reason)
}

func TestHasPermission(t *testing.T) {
	e := newEngine(t)

	assert.True(t, e.HasPermission(roles.RolePresident, roles.PermRolesAssign))
	assert.True(t, e.HasPermission(roles.RoleChefPole, roles.PermInvitationsSend))
	assert.False(t, e.HasPermission(roles.RoleMentor, roles.PermRolesAssign))
	assert.False(t, e.HasPermission(roles.RoleNouveauMembre, roles.PermInvitationsSend))

	// Fail closed on unknown ids.
	assert.False(t, e.HasPermission("ghost", roles.PermMembersView))
	assert.False(t, e.HasPermission("", roles.PermMembersView))
}

func TestIsHigherStrictTotalOrder(t *testing.T) {
	e := newEngine(t)
	all := e.Registry().AllOrderedByLevel()

	for _, a := range all {
		// Irreflexive.
		assert.False(t, e.IsHigher(a.ID, a.ID), "IsHigher(%s,%s)", a.ID, a.ID)
		assert.True(t, e.IsHigherOrEqual(a.ID, a.ID))

		for _, b := range all {
			want := a.Level > b.Level
			assert.Equal(t, want, e.IsHigher(a.ID, b.ID), "IsHigher(%s,%s)", a.ID, b.ID)

			// Antisymmetric: both directions never hold at once.
			if e.IsHigher(a.ID, b.ID) {
				assert.False(t, e.IsHigher(b.ID, a.ID))
			}

			// Transitive via a third role.
			for _, c := range all {
				if e.IsHigher(a.ID, b.ID) && e.IsHigher(b.ID, c.ID) {
					assert.True(t, e.IsHigher(a.ID, c.ID))
				}
			}
		}
	}
}

func TestIsHigherUnknownRoles(t *testing.T) {
	e := newEngine(t)

	assert.True(t, e.IsHigher(roles.RoleNouveauMembre, "ghost"))
	assert.False(t, e.IsHigher("ghost", roles.RoleNouveauMembre))
	assert.False(t, e.IsHigher("ghost", "phantom"))
	assert.True(t, e.IsHigherOrEqual("ghost", "phantom"))
}

func TestCanAssignRole(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name       string
		actor      string
		target     string
		newRole    string
		self       bool
		wantReason DenialReason // empty means allowed
	}{
		{
			name:  "president promotes a member",
			actor: roles.RolePresident, target: roles.RoleMembreActif,
			newRole: roles.RoleChefPole,
		},
		{
			name:  "admin_general promotes to chef_pole",
			actor: roles.RoleAdminGeneral, target: roles.RoleBenevole,
			newRole: roles.RoleChefPole,
		},
		{
			name:  "president on self",
			actor: roles.RolePresident, target: roles.RolePresident,
			newRole: roles.RoleMembreActif, self: true,
			wantReason: ReasonSelf,
		},
		{
			name:  "self check precedes permission check",
			actor: roles.RoleNouveauMembre, target: roles.RoleNouveauMembre,
			newRole: roles.RoleMembreActif, self: true,
			wantReason: ReasonSelf,
		},
		{
			name:  "chef_pole lacks admin.roles.assign",
			actor: roles.RoleChefPole, target: roles.RoleBenevole,
			newRole: roles.RoleAnimateur,
			wantReason: ReasonMissingPermission,
		},
		{
			name:  "admin_general cannot touch president",
			actor: roles.RoleAdminGeneral, target: roles.RolePresident,
			newRole: roles.RoleMembreActif,
			wantReason: ReasonTargetNotBelow,
		},
		{
			name:  "admin_general cannot touch a peer",
			actor: roles.RoleAdminGeneral, target: roles.RoleAdminGeneral,
			newRole: roles.RoleMembreActif,
			wantReason: ReasonTargetNotBelow,
		},
		{
			name:  "admin_general cannot promote to own level",
			actor: roles.RoleAdminGeneral, target: roles.RoleMentor,
			newRole: roles.RoleAdminGeneral,
			wantReason: ReasonRoleNotBelow,
		},
		{
			name:  "admin_general cannot promote above self",
			actor: roles.RoleAdminGeneral, target: roles.RoleMentor,
			newRole: roles.RolePresident,
			wantReason: ReasonRoleNotBelow,
		},
		{
			name:  "unknown actor is denied",
			actor: "ghost", target: roles.RoleNouveauMembre,
			newRole: roles.RoleMembreActif,
			wantReason: ReasonMissingPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.CanAssignRole(tt.actor, tt.target, tt.newRole, tt.self)
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			assertDenied(t, err, tt.wantReason)
		})
	}
}

// No sequence of legal assignments by a sole actor can ever produce a role at
// or above the actor's own level.
func TestAssignRoleNeverEscalates(t *testing.T) {
	e := newEngine(t)
	reg := e.Registry()

	for _, actor := range reg.AllOrderedByLevel() {
		for _, target := range reg.AllOrderedByLevel() {
			for _, newRole := range reg.AllOrderedByLevel() {
				if err := e.CanAssignRole(actor.ID, target.ID, newRole.ID, false); err == nil {
					assert.Less(t, newRole.Level, actor.Level,
						"actor %s granted %s", actor.ID, newRole.ID)
					assert.Less(t, target.Level, actor.Level)
				}
			}
		}
	}
}

func TestCanDeleteAccount(t *testing.T) {
	e := newEngine(t)

	// Allowed: president deletes an admin_general.
	assert.NoError(t, e.CanDeleteAccount(roles.RolePresident, roles.RoleAdminGeneral, false))

	// Self deletion always denied, even for president.
	assertDenied(t, e.CanDeleteAccount(roles.RolePresident, roles.RolePresident, true), ReasonSelf)

	// chef_pole has no admin.users.manage.
	assertDenied(t,
		e.CanDeleteAccount(roles.RoleChefPole, roles.RoleNouveauMembre, false),
		ReasonMissingPermission)

	// Equal or superior target.
	assertDenied(t,
		e.CanDeleteAccount(roles.RoleAdminGeneral, roles.RoleAdminGeneral, false),
		ReasonTargetNotBelow)
	assertDenied(t,
		e.CanDeleteAccount(roles.RoleAdminGeneral, roles.RolePresident, false),
		ReasonTargetNotBelow)
}

func TestCanInviteRole(t *testing.T) {
	e := newEngine(t)
	reg := e.Registry()

	mentor, _ := reg.Get(roles.RoleMentor)
	adminGeneral, _ := reg.Get(roles.RoleAdminGeneral)
	president, _ := reg.Get(roles.RolePresident)

	// chef_pole (7) invites mentor (5): allowed.
	assert.True(t, e.CanInviteRole(7, mentor))

	// chef_pole invites admin_general (8): denied, requested >= actor.
	assert.False(t, e.CanInviteRole(7, adminGeneral))

	// president (9) invites admin_general: allowed (restricted, actor >= 8).
	assert.True(t, e.CanInviteRole(9, adminGeneral))

	// Nobody at level 9 or below can invite a president peer.
	assert.False(t, e.CanInviteRole(9, president))

	// Equal level denied.
	assert.False(t, e.CanInviteRole(5, mentor))

	assert.False(t, e.CanInviteRole(7, nil))
}

func TestCanInviteRoleID(t *testing.T) {
	e := newEngine(t)

	assert.True(t, e.CanInviteRoleID(roles.RoleChefPole, roles.RoleMentor))
	assert.False(t, e.CanInviteRoleID(roles.RoleChefPole, roles.RoleAdminGeneral))
	assert.False(t, e.CanInviteRoleID(roles.RoleChefPole, "ghost"))
	assert.False(t, e.CanInviteRoleID("ghost", roles.RoleNouveauMembre))
}

func TestIsDenied(t *testing.T) {
	e := newEngine(t)

	err := e.CanDeleteAccount(roles.RoleMentor, roles.RoleMentor, true)
	assert.True(t, IsDenied(err))
	assert.False(t, IsDenied(nil))
	assert.False(t, IsDenied(errors.New("boom")))
}

func TestDeniedErrorMessages(t *testing.T) {
	assert.Contains(t, (&DeniedError{Reason: ReasonSelf}).Error(), "own account")
	assert.Contains(t,
		(&DeniedError{Reason: ReasonMissingPermission, Permission: roles.PermRolesAssign}).Error(),
		string(roles.PermRolesAssign))
	assert.Contains(t, (&DeniedError{Reason: ReasonTargetNotBelow}).Error(), "target role")
	assert.Contains(t, (&DeniedError{Reason: ReasonRoleNotBelow}).Error(), "requested role")
}
