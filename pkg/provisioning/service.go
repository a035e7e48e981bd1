package provisioning

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/membership"
	"github.com/trefle-asso/trefle/pkg/notify"
	"github.com/trefle-asso/trefle/pkg/roles"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// InviteRequest is a single provisioning request.
type InviteRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    string `json:"role"`

	// Password is optional; a random high-entropy credential is generated
	// when empty.
	Password string `json:"password,omitempty"`
}

// Service provisions identities at the external provider and triggers the
// welcome notification. Used directly for single invites and through
// membership.Provisioner for application approvals.
type Service struct {
	engine   *authz.Engine
	provider identity.Provider
	sender   notify.Sender
	log      *logrus.Entry
	tracer   trace.Tracer
}

// NewService creates a provisioning service.
func NewService(engine *authz.Engine, provider identity.Provider, sender notify.Sender) *Service {
	return &Service{
		engine:   engine,
		provider: provider,
		sender:   sender,
		log:      logrus.WithField("component", "provisioning"),
		tracer:   otel.Tracer("trefle/provisioning"),
	}
}

// Invite provisions a single identity with the requested role.
//
// The operation is create-or-nothing from this service's point of view: a
// provider failure leaves no partial identity behind (the provider's create
// call is atomic). The welcome notification is best effort; its failure is
// logged and never propagated.
func (s *Service) Invite(ctx context.Context, actorRoleID string, req InviteRequest) (*identity.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.invite",
		trace.WithAttributes(attribute.String("role", req.RoleID)))
	defer span.End()

	if err := validateInvite(&req); err != nil {
		return nil, err
	}
	if !s.engine.CanInviteRoleID(actorRoleID, req.RoleID) {
		return nil, ErrPermissionDenied
	}

	// Idempotency guard, not a lock: two concurrent invites for the same
	// email can both pass this check. The provider rejects true duplicates
	// at creation time.
	existing, err := s.provider.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, &ProviderError{Op: "find", Err: err}
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	password := req.Password
	if password == "" {
		password, err = GeneratePassword()
		if err != nil {
			return nil, err
		}
	}

	created, err := s.provider.Create(ctx, req.Email, password, req.FirstName, req.LastName,
		identity.Metadata{RoleID: req.RoleID, MustResetPassword: true})
	if err != nil {
		if err == identity.ErrEmailTaken {
			return nil, ErrDuplicateEmail
		}
		return nil, &ProviderError{Op: "create", Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"identity_id": created.ID,
		"role":        req.RoleID,
	}).Info("identity provisioned")

	if err := s.sender.SendWelcome(ctx, req.Email, req.FirstName, password); err != nil {
		s.log.WithError(err).WithField("identity_id", created.ID).
			Warn("welcome notification failed")
	}

	return created, nil
}

// ProvisionApproved implements membership.Provisioner: it creates the member
// identity for an approved application with the default new-member role.
func (s *Service) ProvisionApproved(ctx context.Context, email, firstName, lastName string) (*membership.ProvisionOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.approve")
	defer span.End()

	existing, err := s.provider.FindByEmail(ctx, email)
	if err != nil {
		return nil, &ProviderError{Op: "find", Err: err}
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	password, err := GeneratePassword()
	if err != nil {
		return nil, err
	}

	created, err := s.provider.Create(ctx, email, password, firstName, lastName,
		identity.Metadata{RoleID: roles.DefaultRoleID, MustResetPassword: true})
	if err != nil {
		if err == identity.ErrEmailTaken {
			return nil, ErrDuplicateEmail
		}
		return nil, &ProviderError{Op: "create", Err: err}
	}

	outcome := &membership.ProvisionOutcome{
		Identity:          created,
		PlaintextPassword: password,
		NotificationSent:  true,
	}
	if err := s.sender.SendWelcome(ctx, email, firstName, password); err != nil {
		s.log.WithError(err).WithField("identity_id", created.ID).
			Warn("welcome notification failed for approved member")
		outcome.NotificationSent = false
	}

	return outcome, nil
}

func validateInvite(req *InviteRequest) error {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if req.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "must not be empty"}
	}
	if req.LastName == "" {
		return &ValidationError{Field: "last_name", Message: "must not be empty"}
	}
	if !emailRegexp.MatchString(req.Email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if req.RoleID == "" {
		return &ValidationError{Field: "role", Message: "must not be empty"}
	}
	return nil
}
