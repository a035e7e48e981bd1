package roles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// roleFile is the on-disk representation of a custom role set.
type roleFile struct {
	Roles []Role `yaml:"roles"`
}

// LoadRoleFile reads a YAML role set from path and builds a registry from it.
// Deployments that need a different hierarchy than the shipped one point
// TREFLE_ROLES_FILE at such a file; tests use it to substitute alternative
// role sets.
//
// Example file:
//
//	roles:
//	  - id: president
//	    level: 9
//	    display_name: Président
//	    restricted: true
//	    permissions:
//	      - admin.roles.assign
//	      - admin.users.manage
func LoadRoleFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role file: %w", err)
	}

	var file roleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse role file %s: %w", path, err)
	}

	reg, err := NewRegistry(file.Roles)
	if err != nil {
		return nil, fmt.Errorf("invalid role set in %s: %w", path, err)
	}
	return reg, nil
}
