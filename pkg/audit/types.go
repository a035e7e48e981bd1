package audit

import (
	"encoding/json"
	"time"
)

// EventType categorizes an audit event.
type EventType string

const (
	// Authorization events
	EventTypeRoleAssign   EventType = "authz.role_assign"
	EventTypeAccessDenied EventType = "authz.access_denied"

	// Admin events
	EventTypeAccountDelete EventType = "admin.account_delete"
	EventTypeBootstrap     EventType = "admin.bootstrap"

	// Provisioning events
	EventTypeIdentityProvision EventType = "provisioning.identity_create"
	EventTypeBulkInvite        EventType = "provisioning.bulk_invite"

	// Membership events
	EventTypeApplicationSubmit EventType = "membership.application_submit"
	EventTypeApplicationReview EventType = "membership.application_review"
)

// EventStatus is the outcome of an audited action.
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor information
	ActorID   string `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role,omitempty"`

	// Target information
	TargetID    string `json:"target_id,omitempty"`
	TargetEmail string `json:"target_email,omitempty"`

	// Request context
	RequestID string `json:"request_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Additional details
	Message  string         `json:"message,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}
