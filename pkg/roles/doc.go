// Package roles defines the static role hierarchy of the association and the
// immutable registry used to resolve role ids into levels and permission sets.
//
// # Hierarchy
//
// Nine roles ship with the platform, one per level 1..9 (higher level = more
// authority):
//
//	1 nouveau_membre   2 membre_actif    3 benevole
//	4 animateur        5 mentor          6 coordinateur
//	7 chef_pole        8 admin_general   9 president
//
// admin_general and president are restricted: only actors at level 8 or above
// may grant them.
//
// # Usage
//
//	reg := roles.NewDefaultRegistry()
//	role, ok := reg.Get("chef_pole")
//	level := reg.Level("mentor") // 5; unknown ids report 0
//
// Unknown role ids resolve to level 0 and carry no permissions, so they never
// satisfy any authorization check.
//
// # Related Packages
//
//   - pkg/authz: hierarchy and permission predicates built on the registry
package roles
