package roles

// Permission represents a capability token an actor either holds (via its role)
// or does not.
type Permission string

const (
	PermRolesAssign        Permission = "admin.roles.assign"
	PermUsersManage        Permission = "admin.users.manage"
	PermApplicationsReview Permission = "admin.applications.review"
	PermInvitationsSend    Permission = "admin.invitations.send"
	PermInvitationsBulk    Permission = "admin.invitations.bulk"
	PermContentCreate      Permission = "content.create"
	PermContentPublish     Permission = "content.publish"
	PermContentModerate    Permission = "content.moderate"
	PermEventsCreate       Permission = "events.create"
	PermEventsManage       Permission = "events.manage"
	PermMembersView        Permission = "members.view"
	PermReportsView        Permission = "reports.view"
)

// Role represents a named authority level with an associated permission set.
// Roles are static data: they are constructed once at process start and never
// mutated afterwards.
type Role struct {
	ID          string       `json:"id" yaml:"id"`
	Level       int          `json:"level" yaml:"level"`
	DisplayName string       `json:"display_name" yaml:"display_name"`
	Description string       `json:"description" yaml:"description"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`

	// Restricted roles (president, admin_general) may only be granted by
	// actors at level 8 or above.
	Restricted bool `json:"restricted" yaml:"restricted"`
}

// HasPermission reports whether the role's permission set contains perm.
func (r *Role) HasPermission(perm Permission) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Built-in role identifiers
const (
	RoleNouveauMembre = "nouveau_membre"
	RoleMembreActif   = "membre_actif"
	RoleBenevole      = "benevole"
	RoleAnimateur     = "animateur"
	RoleMentor        = "mentor"
	RoleCoordinateur  = "coordinateur"
	RoleChefPole      = "chef_pole"
	RoleAdminGeneral  = "admin_general"
	RolePresident     = "president"
)

// DefaultRoleID is the role granted to identities provisioned through the
// membership application flow.
const DefaultRoleID = RoleNouveauMembre

// RestrictedGrantMinLevel is the minimum actor level required to invite or
// assign a restricted role.
const RestrictedGrantMinLevel = 8

// DefaultRoles returns the nine shipped role definitions, levels 1..9.
func DefaultRoles() []Role {
	return []Role{
		{
			ID:          RoleNouveauMembre,
			Level:       1,
			DisplayName: "Nouveau membre",
			Description: "Recently approved member with read access",
			Permissions: []Permission{PermMembersView},
		},
		{
			ID:          RoleMembreActif,
			Level:       2,
			DisplayName: "Membre actif",
			Description: "Active member who can contribute content",
			Permissions: []Permission{PermMembersView, PermContentCreate},
		},
		{
			ID:          RoleBenevole,
			Level:       3,
			DisplayName: "Bénévole",
			Description: "Volunteer helping with events",
			Permissions: []Permission{PermMembersView, PermContentCreate, PermEventsCreate},
		},
		{
			ID:          RoleAnimateur,
			Level:       4,
			DisplayName: "Animateur",
			Description: "Facilitator who can publish content and run events",
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermEventsCreate, PermEventsManage,
			},
		},
		{
			ID:          RoleMentor,
			Level:       5,
			DisplayName: "Mentor",
			Description: "Experienced member mentoring newcomers",
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermContentModerate, PermEventsCreate, PermEventsManage,
			},
		},
		{
			ID:          RoleCoordinateur,
			Level:       6,
			DisplayName: "Coordinateur",
			Description: "Coordinator with reporting access",
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermContentModerate, PermEventsCreate, PermEventsManage,
				PermReportsView,
			},
		},
		{
			ID:          RoleChefPole,
			Level:       7,
			DisplayName: "Chef de pôle",
			Description: "Division lead who can invite and review members",
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermContentModerate, PermEventsCreate, PermEventsManage,
				PermReportsView, PermInvitationsSend, PermApplicationsReview,
			},
		},
		{
			ID:          RoleAdminGeneral,
			Level:       8,
			DisplayName: "Administrateur général",
			Description: "General administrator with full member management",
			Restricted:  true,
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermContentModerate, PermEventsCreate, PermEventsManage,
				PermReportsView, PermInvitationsSend, PermInvitationsBulk,
				PermApplicationsReview, PermRolesAssign, PermUsersManage,
			},
		},
		{
			ID:          RolePresident,
			Level:       9,
			DisplayName: "Président",
			Description: "Association president with every permission",
			Restricted:  true,
			Permissions: []Permission{
				PermMembersView, PermContentCreate, PermContentPublish,
				PermContentModerate, PermEventsCreate, PermEventsManage,
				PermReportsView, PermInvitationsSend, PermInvitationsBulk,
				PermApplicationsReview, PermRolesAssign, PermUsersManage,
			},
		},
	}
}
