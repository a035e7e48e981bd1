package api

import (
	"github.com/trefle-asso/trefle/pkg/provisioning"
	"github.com/trefle-asso/trefle/pkg/roles"
)

// CheckRequest asks whether a role holds a permission. Role is optional
// when actor headers are present.
type CheckRequest struct {
	Role       string `json:"role,omitempty"`
	Permission string `json:"permission"`
}

// CheckResponse is the authorization probe answer.
type CheckResponse struct {
	Role       string `json:"role"`
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

// AssignRoleRequest changes a member's role.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// ReviewRequest carries a reviewer's decision on an application.
type ReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// BulkInviteRequest carries the rows of a bulk invitation.
type BulkInviteRequest struct {
	Rows []provisioning.Row `json:"rows"`
}

// RolesResponse lists the role hierarchy in ascending level order.
type RolesResponse struct {
	Roles []*roles.Role `json:"roles"`
}

// StatusResponse acknowledges a state change with no payload.
type StatusResponse struct {
	Status string `json:"status"`
}
