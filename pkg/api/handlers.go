package api

import (
	"errors"
	"net/http"

	"github.com/trefle-asso/trefle/pkg/authz"
	"github.com/trefle-asso/trefle/pkg/httputil"
	"github.com/trefle-asso/trefle/pkg/identity"
	"github.com/trefle-asso/trefle/pkg/membership"
	"github.com/trefle-asso/trefle/pkg/middleware"
	"github.com/trefle-asso/trefle/pkg/provisioning"
	"github.com/trefle-asso/trefle/pkg/roles"
)

// checkAuthorization answers whether a role holds a permission. The role
// defaults to the calling actor's when the body omits it, so other services
// can probe on behalf of their own callers.
func (s *Server) checkAuthorization(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Role == "" {
		actor, ok := middleware.GetActor(r)
		if !ok {
			httputil.WriteBadRequest(w, "role is required when no actor headers are present")
			return
		}
		req.Role = actor.RoleID
	}
	if req.Permission == "" {
		httputil.WriteBadRequest(w, "permission is required")
		return
	}

	allowed := s.engine.HasPermission(req.Role, roles.Permission(req.Permission))
	s.countDecision("permission_check", allowed)

	httputil.WriteSuccess(w, CheckResponse{
		Role:       req.Role,
		Permission: req.Permission,
		Allowed:    allowed,
	})
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	targetID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req AssignRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Role, "role") {
		return
	}

	err := s.accounts.AssignRole(r.Context(), actor, targetID, req.Role)
	s.countDecision("assign_role", err == nil)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	httputil.WriteSuccess(w, StatusResponse{Status: "role assigned"})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	targetID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	err := s.accounts.DeleteAccount(r.Context(), actor, targetID)
	s.countDecision("delete_account", err == nil)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	var input membership.SubmitInput
	if !httputil.ParseJSONOrError(w, r, &input) {
		return
	}

	app, err := s.workflow.Submit(r.Context(), input)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ApplicationsSubmittedTotal.Inc()
		s.metrics.ApplicationsPending.Inc()
	}
	httputil.WriteCreated(w, app)
}

func (s *Server) reviewApplication(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	if !s.accounts.Authorize(actor.RoleID, roles.PermApplicationsReview) {
		s.countDecision("application_review", false)
		httputil.WriteForbidden(w, "reviewing applications requires admin.applications.review")
		return
	}

	appID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	decision := membership.Decision(req.Decision)
	if decision != membership.DecisionApprove && decision != membership.DecisionReject {
		httputil.WriteBadRequest(w, "decision must be approve or reject")
		return
	}

	result, err := s.workflow.Review(r.Context(), appID, decision, actor.IdentityID, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ApplicationsReviewedTotal.WithLabelValues(string(decision)).Inc()
		s.metrics.ApplicationsPending.Dec()
		if result.IdentityID != "" {
			s.metrics.IdentitiesProvisionedTotal.WithLabelValues("application", roles.DefaultRoleID).Inc()
		}
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) invite(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	if !s.accounts.Authorize(actor.RoleID, roles.PermInvitationsSend) {
		s.countDecision("invite", false)
		httputil.WriteForbidden(w, "invitations require admin.invitations.send")
		return
	}

	var req provisioning.InviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	created, err := s.provisioner.Invite(r.Context(), actor.RoleID, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ProvisioningErrorsTotal.WithLabelValues("invite", errorReason(err)).Inc()
		}
		s.writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.IdentitiesProvisionedTotal.WithLabelValues("invite", req.RoleID).Inc()
	}
	httputil.WriteCreated(w, created)
}

func (s *Server) bulkInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	if !s.accounts.Authorize(actor.RoleID, roles.PermInvitationsBulk) {
		s.countDecision("bulk_invite", false)
		httputil.WriteForbidden(w, "bulk invitations require admin.invitations.bulk")
		return
	}

	var req BulkInviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Rows) == 0 {
		httputil.WriteBadRequest(w, "rows must not be empty")
		return
	}

	result, err := s.bulk.Run(r.Context(), actor.RoleID, req.Rows)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.BulkInviteRows.WithLabelValues("created").Observe(float64(result.Created))
		s.metrics.BulkInviteRows.WithLabelValues("failed").Observe(float64(result.Failed))
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, RolesResponse{Roles: s.engine.Registry().AllOrderedByLevel()})
}

func (s *Server) countDecision(operation string, allowed bool) {
	if s.metrics == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	s.metrics.AuthzDecisionsTotal.WithLabelValues(operation, decision).Inc()
}

// writeDomainError maps domain errors onto HTTP statuses. Unknown errors
// become opaque 500s so provider internals never leak to the gateway.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var provValidation *provisioning.ValidationError
	var appValidation *membership.ValidationError
	var providerErr *provisioning.ProviderError

	switch {
	case errors.As(err, &provValidation), errors.As(err, &appValidation),
		errors.Is(err, membership.ErrReasonRequired):
		httputil.WriteError(w, http.StatusBadRequest, err)
	case authz.IsDenied(err), errors.Is(err, provisioning.ErrPermissionDenied):
		httputil.WriteError(w, http.StatusForbidden, err)
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, membership.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, provisioning.ErrDuplicateEmail),
		errors.Is(err, membership.ErrDuplicatePending),
		errors.Is(err, membership.ErrAlreadyReviewed),
		errors.Is(err, identity.ErrEmailTaken):
		httputil.WriteError(w, http.StatusConflict, err)
	case errors.Is(err, provisioning.ErrTooManyRows):
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, err)
	case errors.As(err, &providerErr):
		httputil.WriteError(w, http.StatusBadGateway, err)
	default:
		httputil.WriteInternalError(w, err)
	}
}

func errorReason(err error) string {
	var provValidation *provisioning.ValidationError
	var providerErr *provisioning.ProviderError

	switch {
	case errors.As(err, &provValidation):
		return "validation"
	case errors.Is(err, provisioning.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, provisioning.ErrPermissionDenied):
		return "permission"
	case errors.As(err, &providerErr):
		return "provider"
	default:
		return "other"
	}
}
