package membership

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trefle-asso/trefle/pkg/identity"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ProvisionOutcome reports what the provisioner did for an approved
// application.
type ProvisionOutcome struct {
	Identity *identity.Identity

	// PlaintextPassword is the generated initial credential.
	PlaintextPassword string

	// NotificationSent is false when the welcome mail could not be delivered.
	// The provisioning itself still succeeded.
	NotificationSent bool
}

// Provisioner creates the member identity for an approved application.
// Implemented by pkg/provisioning.
type Provisioner interface {
	ProvisionApproved(ctx context.Context, email, firstName, lastName string) (*ProvisionOutcome, error)
}

// ValidationError reports a malformed submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ReviewResult is the outcome of a successful review.
type ReviewResult struct {
	Application *Application `json:"application"`

	// IdentityID is set when the review approved the application.
	IdentityID string `json:"identity_id,omitempty"`

	// FallbackCredential carries the plaintext initial password when, and
	// only when, the welcome notification could not be delivered. Exposing
	// the credential to the reviewing operator is the documented trade-off
	// against locking the new member out entirely.
	FallbackCredential string `json:"fallback_credential,omitempty"`
}

// Workflow drives an application from submission to a terminal state.
type Workflow struct {
	store       Store
	provisioner Provisioner
	log         *logrus.Entry
	now         func() time.Time
}

// NewWorkflow creates a workflow over the given store and provisioner.
func NewWorkflow(store Store, provisioner Provisioner) *Workflow {
	return &Workflow{
		store:       store,
		provisioner: provisioner,
		log:         logrus.WithField("component", "membership"),
		now:         time.Now,
	}
}

// Submit records a new pending application. It returns ErrDuplicatePending
// when a non-rejected application already exists for the email.
//
// The duplicate check is a read before the insert, so two concurrent
// submissions for the same email can both pass it. The store's uniqueness
// constraint on active emails is the real safety net; this check only gives
// callers a friendly error in the common case.
func (w *Workflow) Submit(ctx context.Context, input SubmitInput) (*Application, error) {
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))

	existing, err := w.store.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePending
	}

	app := &Application{
		ID:          uuid.NewString(),
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       email,
		Whatsapp:    strings.TrimSpace(input.Whatsapp),
		Motivations: strings.TrimSpace(input.Motivations),
		Status:      StatusPending,
		CreatedAt:   w.now().UTC(),
	}

	if err := w.store.Insert(ctx, app); err != nil {
		return nil, err
	}

	w.log.WithFields(logrus.Fields{
		"application_id": app.ID,
	}).Info("membership application submitted")

	return app, nil
}

// Review applies a reviewer's decision to a pending application.
//
// Approval provisions the member identity BEFORE the terminal status is
// persisted: if the identity provider call fails (including timeouts), the
// application stays pending and the review returns the provider error. A
// crash between the two steps can leave an orphaned identity with a still
// pending application; retrying the review is safe because the provider's
// duplicate-email check prevents a second identity.
func (w *Workflow) Review(ctx context.Context, applicationID string, decision Decision, reviewerID, reason string) (*ReviewResult, error) {
	app, err := w.store.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusPending {
		return nil, ErrAlreadyReviewed
	}

	switch decision {
	case DecisionReject:
		return w.reject(ctx, app, reviewerID, reason)
	case DecisionApprove:
		return w.approve(ctx, app, reviewerID)
	default:
		return nil, &ValidationError{Field: "decision", Message: fmt.Sprintf("unknown decision %q", decision)}
	}
}

func (w *Workflow) reject(ctx context.Context, app *Application, reviewerID, reason string) (*ReviewResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	reviewedAt := w.now().UTC()
	if err := w.store.UpdateStatus(ctx, app.ID, StatusRejected, reviewerID, reason, reviewedAt); err != nil {
		return nil, err
	}

	app.Status = StatusRejected
	app.ReviewedBy = reviewerID
	app.ReviewedAt = &reviewedAt
	app.RejectionReason = reason

	w.log.WithField("application_id", app.ID).Info("application rejected")
	return &ReviewResult{Application: app}, nil
}

func (w *Workflow) approve(ctx context.Context, app *Application, reviewerID string) (*ReviewResult, error) {
	outcome, err := w.provisioner.ProvisionApproved(ctx, app.Email, app.FirstName, app.LastName)
	if err != nil {
		// No partial commit: the application stays pending.
		return nil, fmt.Errorf("provisioning failed, application remains pending: %w", err)
	}

	reviewedAt := w.now().UTC()
	if err := w.store.UpdateStatus(ctx, app.ID, StatusApproved, reviewerID, "", reviewedAt); err != nil {
		// Identity exists but the status write failed; surface the error so
		// the operator retries. The duplicate guard makes the retry safe.
		return nil, fmt.Errorf("identity %s created but status update failed: %w", outcome.Identity.ID, err)
	}

	app.Status = StatusApproved
	app.ReviewedBy = reviewerID
	app.ReviewedAt = &reviewedAt

	result := &ReviewResult{
		Application: app,
		IdentityID:  outcome.Identity.ID,
	}
	if !outcome.NotificationSent {
		w.log.WithField("application_id", app.ID).
			Warn("welcome notification failed, returning credential to reviewer")
		result.FallbackCredential = outcome.PlaintextPassword
	}

	w.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"identity_id":    outcome.Identity.ID,
	}).Info("application approved")

	return result, nil
}

func validateSubmit(input SubmitInput) error {
	if strings.TrimSpace(input.FirstName) == "" {
		return &ValidationError{Field: "first_name", Message: "must not be empty"}
	}
	if strings.TrimSpace(input.LastName) == "" {
		return &ValidationError{Field: "last_name", Message: "must not be empty"}
	}
	if !emailRegexp.MatchString(strings.TrimSpace(input.Email)) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if strings.TrimSpace(input.Motivations) == "" {
		return &ValidationError{Field: "motivations", Message: "must not be empty"}
	}
	return nil
}
