package membership

import (
	"errors"
	"time"
)

// Status tracks an application through its lifecycle. Approved and rejected
// are terminal: once set, the record never changes again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is a reviewer's verdict on a pending application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Application is a prospective member's submitted request. Applications are
// soft history records: they are never deleted in the normal flow.
type Application struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Whatsapp    string `json:"whatsapp,omitempty"`
	Motivations string `json:"motivations"`

	Status          Status     `json:"status"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SubmitInput is the payload of a new application.
type SubmitInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Whatsapp    string `json:"whatsapp"`
	Motivations string `json:"motivations"`
}

var (
	// ErrNotFound is returned when an application id does not resolve.
	ErrNotFound = errors.New("application not found")

	// ErrAlreadyReviewed is returned when a reviewer acts on an application
	// that already reached a terminal status.
	ErrAlreadyReviewed = errors.New("application already reviewed")

	// ErrDuplicatePending is returned on submission when a non-rejected
	// application already exists for the email.
	ErrDuplicatePending = errors.New("an application for this email is already pending or approved")

	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("a rejection reason is required")
)
