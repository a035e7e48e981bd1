package roles

import (
	"fmt"
	"sort"
)

// UnknownLevel is the level reported for role ids that do not resolve to a
// known role. No defined role may use it, so unknown ids always compare lower
// than any real role and never satisfy a permission check.
const UnknownLevel = 0

// Registry is an immutable lookup table of role definitions. Construct it once
// at process start and share it freely: it is safe for concurrent use because
// it is never mutated after NewRegistry returns.
type Registry struct {
	byID    map[string]*Role
	ordered []*Role
}

// NewRegistry builds a registry from the given role set. It rejects duplicate
// ids, non-positive levels, and roles without an id.
func NewRegistry(defs []Role) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("role set is empty")
	}

	byID := make(map[string]*Role, len(defs))
	ordered := make([]*Role, 0, len(defs))

	for i := range defs {
		role := defs[i]
		if role.ID == "" {
			return nil, fmt.Errorf("role at index %d has no id", i)
		}
		if role.Level <= UnknownLevel {
			return nil, fmt.Errorf("role %q has invalid level %d", role.ID, role.Level)
		}
		if _, exists := byID[role.ID]; exists {
			return nil, fmt.Errorf("duplicate role id %q", role.ID)
		}
		byID[role.ID] = &role
		ordered = append(ordered, &role)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Level < ordered[j].Level
	})

	return &Registry{byID: byID, ordered: ordered}, nil
}

// NewDefaultRegistry builds a registry from the nine shipped roles.
func NewDefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultRoles())
	if err != nil {
		// The shipped role set is compiled in; failing to load it is a bug.
		panic(fmt.Sprintf("invalid built-in role set: %v", err))
	}
	return reg
}

// Get returns the role for the given id.
func (r *Registry) Get(roleID string) (*Role, bool) {
	role, ok := r.byID[roleID]
	return role, ok
}

// Level returns the hierarchy level for the given role id. Unknown ids report
// UnknownLevel.
func (r *Registry) Level(roleID string) int {
	if role, ok := r.byID[roleID]; ok {
		return role.Level
	}
	return UnknownLevel
}

// AllOrderedByLevel returns every role ordered by ascending level. The order
// is stable across calls. Intended for display and admin listings only, never
// for security decisions.
func (r *Registry) AllOrderedByLevel() []*Role {
	out := make([]*Role, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Invitable returns the role ids that may appear in an invitation request,
// ordered by ascending level.
func (r *Registry) Invitable() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, role := range r.ordered {
		ids = append(ids, role.ID)
	}
	return ids
}
