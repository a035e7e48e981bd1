package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trefle-asso/trefle/pkg/audit"
	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/notify"
	"github.com/trefle-asso/trefle/pkg/provisioning"
	"github.com/trefle-asso/trefle/pkg/roles"
)

// ErrAlreadyBootstrapped is returned when Bootstrap runs against a provider
// that already holds a restricted-role identity.
var ErrAlreadyBootstrapped = errors.New("a president or general administrator already exists")

// Actor identifies who performs an admin operation. The API gateway
// authenticates the caller and forwards these two fields.
type Actor struct {
	IdentityID string `json:"identity_id"`
	RoleID     string `json:"role_id"`
}

// Service is the admin surface over member accounts: role assignment,
// deletion, and the one-time bootstrap of the first president.
type Service struct {
	engine   *authz.Engine
	provider identity.Provider
	sender   notify.Sender
	auditLog audit.Logger
	log      *logrus.Entry
}

// NewService creates an account admin service.
func NewService(engine *authz.Engine, provider identity.Provider, sender notify.Sender, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NoOp()
	}
	return &Service{
		engine:   engine,
		provider: provider,
		sender:   sender,
		auditLog: auditLog,
		log:      logrus.WithField("component", "accounts"),
	}
}

// Authorize reports whether the actor's role carries the permission.
func (s *Service) Authorize(actorRoleID string, perm roles.Permission) bool {
	return s.engine.HasPermission(actorRoleID, perm)
}

// AssignRole changes the target identity's role. The target is loaded from
// the provider first so the hierarchy check runs against its current role,
// not a caller-supplied one.
func (s *Service) AssignRole(ctx context.Context, actor Actor, targetID, newRoleID string) error {
	target, err := s.provider.Get(ctx, targetID)
	if err != nil {
		return err
	}

	targetIsSelf := actor.IdentityID == targetID
	if err := s.engine.CanAssignRole(actor.RoleID, target.Metadata.RoleID, newRoleID, targetIsSelf); err != nil {
		s.audit(ctx, &audit.Event{
			EventType: audit.EventTypeAccessDenied,
			Status:    audit.EventStatusDenied,
			ActorID:   actor.IdentityID,
			ActorRole: actor.RoleID,
			TargetID:  targetID,
			Message:   err.Error(),
			Metadata:  map[string]any{"operation": "assign_role", "new_role": newRoleID},
		})
		return err
	}

	meta := target.Metadata
	meta.RoleID = newRoleID
	if err := s.provider.Update(ctx, targetID, meta); err != nil {
		return fmt.Errorf("failed to update identity %s: %w", targetID, err)
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":  actor.IdentityID,
		"target_id": targetID,
		"new_role":  newRoleID,
	}).Info("role assigned")

	s.audit(ctx, &audit.Event{
		EventType:   audit.EventTypeRoleAssign,
		Status:      audit.EventStatusSuccess,
		ActorID:     actor.IdentityID,
		ActorRole:   actor.RoleID,
		TargetID:    targetID,
		TargetEmail: target.Email,
		Metadata:    map[string]any{"old_role": target.Metadata.RoleID, "new_role": newRoleID},
	})
	return nil
}

// DeleteAccount removes the target identity from the provider.
func (s *Service) DeleteAccount(ctx context.Context, actor Actor, targetID string) error {
	target, err := s.provider.Get(ctx, targetID)
	if err != nil {
		return err
	}

	targetIsSelf := actor.IdentityID == targetID
	if err := s.engine.CanDeleteAccount(actor.RoleID, target.Metadata.RoleID, targetIsSelf); err != nil {
		s.audit(ctx, &audit.Event{
			EventType: audit.EventTypeAccessDenied,
			Status:    audit.EventStatusDenied,
			ActorID:   actor.IdentityID,
			ActorRole: actor.RoleID,
			TargetID:  targetID,
			Message:   err.Error(),
			Metadata:  map[string]any{"operation": "delete_account"},
		})
		return err
	}

	if err := s.provider.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete identity %s: %w", targetID, err)
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":  actor.IdentityID,
		"target_id": targetID,
	}).Info("account deleted")

	s.audit(ctx, &audit.Event{
		EventType:   audit.EventTypeAccountDelete,
		Status:      audit.EventStatusSuccess,
		ActorID:     actor.IdentityID,
		ActorRole:   actor.RoleID,
		TargetID:    targetID,
		TargetEmail: target.Email,
		Metadata:    map[string]any{"deleted_role": target.Metadata.RoleID},
	})
	return nil
}

// BootstrapResult is the outcome of creating the founding president.
type BootstrapResult struct {
	Identity          *identity.Identity
	PlaintextPassword string
}

// Bootstrap creates the founding president identity. It only succeeds while
// the provider holds no identity with a restricted role; afterwards every
// admin change must go through the normal hierarchy rules.
//
// The zero-admin check and the create are not atomic: two concurrent
// bootstrap calls can both pass the check. The deployment runs this once,
// from the CLI, before the API is exposed.
func (s *Service) Bootstrap(ctx context.Context, email, firstName, lastName string) (*BootstrapResult, error) {
	for _, roleID := range []string{roles.RolePresident, roles.RoleAdminGeneral} {
		existing, err := s.provider.ListByRole(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s identities: %w", roleID, err)
		}
		if len(existing) > 0 {
			return nil, ErrAlreadyBootstrapped
		}
	}

	password, err := provisioning.GeneratePassword()
	if err != nil {
		return nil, err
	}

	created, err := s.provider.Create(ctx, email, password, firstName, lastName,
		identity.Metadata{RoleID: roles.RolePresident, MustResetPassword: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create president identity: %w", err)
	}

	s.log.WithField("identity_id", created.ID).Info("founding president created")

	s.audit(ctx, &audit.Event{
		EventType:   audit.EventTypeBootstrap,
		Status:      audit.EventStatusSuccess,
		TargetID:    created.ID,
		TargetEmail: created.Email,
	})

	if s.sender != nil {
		if err := s.sender.SendWelcome(ctx, email, firstName, password); err != nil {
			s.log.WithError(err).Warn("welcome notification failed for founding president")
		}
	}

	return &BootstrapResult{Identity: created, PlaintextPassword: password}, nil
}

func (s *Service) audit(ctx context.Context, event *audit.Event) {
	if err := s.auditLog.Log(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to write audit event")
	}
}
