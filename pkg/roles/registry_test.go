package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry()

	all := reg.AllOrderedByLevel()
	require.Len(t, all, 9)

	// Levels 1..9 contiguous, ascending.
	for i, role := range all {
		assert.Equal(t, i+1, role.Level, "role %s", role.ID)
	}

	assert.Equal(t, RoleNouveauMembre, all[0].ID)
	assert.Equal(t, RolePresident, all[8].ID)
}

func TestRegistryGet(t *testing.T) {
	reg := NewDefaultRegistry()

	role, ok := reg.Get(RoleChefPole)
	require.True(t, ok)
	assert.Equal(t, 7, role.Level)
	assert.True(t, role.HasPermission(PermInvitationsSend))
	assert.False(t, role.HasPermission(PermRolesAssign))

	_, ok = reg.Get("intern")
	assert.False(t, ok)
}

func TestRegistryLevel(t *testing.T) {
	reg := NewDefaultRegistry()

	assert.Equal(t, 9, reg.Level(RolePresident))
	assert.Equal(t, 5, reg.Level(RoleMentor))
	assert.Equal(t, UnknownLevel, reg.Level("nonexistent"))
	assert.Equal(t, UnknownLevel, reg.Level(""))
}

func TestRegistryRestrictedFlags(t *testing.T) {
	reg := NewDefaultRegistry()

	for _, id := range []string{RolePresident, RoleAdminGeneral} {
		role, ok := reg.Get(id)
		require.True(t, ok)
		assert.True(t, role.Restricted, "role %s should be restricted", id)
	}

	role, _ := reg.Get(RoleChefPole)
	assert.False(t, role.Restricted)
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		defs []Role
	}{
		{"empty set", nil},
		{"missing id", []Role{{Level: 1}}},
		{"zero level", []Role{{ID: "a", Level: 0}}},
		{"negative level", []Role{{ID: "a", Level: -2}}},
		{"duplicate id", []Role{{ID: "a", Level: 1}, {ID: "a", Level: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs)
			assert.Error(t, err)
		})
	}
}

func TestNewRegistryOrderingStable(t *testing.T) {
	reg, err := NewRegistry([]Role{
		{ID: "c", Level: 3},
		{ID: "a", Level: 1},
		{ID: "b", Level: 2},
	})
	require.NoError(t, err)

	first := reg.AllOrderedByLevel()
	second := reg.AllOrderedByLevel()
	require.Equal(t, first, second)
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, "c", first[2].ID)

	// Returned slice is a copy; mutating it must not affect the registry.
	first[0] = nil
	assert.Equal(t, "a", reg.AllOrderedByLevel()[0].ID)
}

func TestLoadRoleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")

	content := `roles:
  - id: chief
    level: 3
    display_name: Chief
    restricted: true
    permissions:
      - admin.roles.assign
  - id: member
    level: 1
    display_name: Member
    permissions:
      - members.view
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := LoadRoleFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Level("chief"))
	chief, ok := reg.Get("chief")
	require.True(t, ok)
	assert.True(t, chief.Restricted)
	assert.True(t, chief.HasPermission(PermRolesAssign))

	all := reg.AllOrderedByLevel()
	require.Len(t, all, 2)
	assert.Equal(t, "member", all[0].ID)
}

func TestLoadRoleFileErrors(t *testing.T) {
	_, err := LoadRoleFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles: {not a list"), 0o600))
	_, err = LoadRoleFile(path)
	assert.Error(t, err)

	path2 := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(path2, []byte(
		"roles:\n  - id: a\n    level: 1\n  - id: a\n    level: 2\n"), 0o600))
	_, err = LoadRoleFile(path2)
	assert.Error(t, err)
}
