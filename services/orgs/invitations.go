package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/email"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/launchkit/saas-starter/services"
	"github.com/launchkit/saas-starter/utils"
)

// Invite creates a pending invitation and emails the invitee. An existing
// pending invitation for the same email is cancelled first, so at most one
// is pending per (organization, email). The new invitation and the email
// send are one transaction; a delivery failure leaves no invitation behind.
func (s *Service) Invite(ctx context.Context, actorID, orgID uuid.UUID, inviteeEmail string, role models.Role) (*models.Invitation, error) {
	inviteeEmail = utils.NormalizeEmail(inviteeEmail)
	if err := utils.ValidateEmail(inviteeEmail); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid email address", err)
	}
	if !role.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid role", nil).
			WithDetail("role", string(role))
	}

	actor, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}

	d := Evaluate(actor.Role, ActionInviteMember, &Target{Role: role})
	if !d.Allowed {
		return nil, permissionError(d)
	}

	// Optimistic capacity check; the membership insert at accept time is
	// the authoritative guard.
	count, err := s.members.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("count members", err)
	}
	if count >= s.cfg.MemberLimit {
		return nil, services.ErrMemberLimitReached
	}

	// An existing user who is already a member cannot be invited again.
	if existing, err := s.users.GetByEmail(ctx, inviteeEmail); err == nil {
		if _, err := s.members.GetByOrgAndUser(ctx, orgID, existing.ID); err == nil {
			return nil, services.ErrDuplicateMember
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.WrapInternal("check existing membership", err)
		}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, services.WrapInternal("check existing user", err)
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrganizationNotFound
		}
		return nil, services.WrapInternal("get organization", err)
	}

	inviter, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, services.WrapInternal("get inviter", err)
	}

	inv := models.NewInvitation(orgID, inviteeEmail, role, actorID, s.cfg.InvitationTTL)

	err = s.txm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		prior, err := s.invites.FindPendingByOrgAndEmail(txCtx, orgID, inviteeEmail)
		switch {
		case err == nil:
			if !s.cfg.CancelPendingOnReinvite {
				return services.ErrInvitationPending
			}
			if err := s.invites.TransitionStatus(txCtx, prior.ID, models.InvitationPending, models.InvitationCancelled); err != nil {
				if errors.Is(err, repositories.ErrStaleState) {
					return services.ErrInvitationPending
				}
				return services.WrapInternal("cancel prior invitation", err)
			}
		case errors.Is(err, repositories.ErrNotFound):
			// no pending invitation to supersede
		default:
			return services.WrapInternal("find pending invitation", err)
		}

		if err := s.invites.Create(txCtx, inv); err != nil {
			return services.WrapInternal("create invitation", err)
		}

		msg := email.Invitation(org.Name, inviter.Name, s.invitationURL(inv.ID))
		msg.To = inviteeEmail
		if _, err := s.mailer.Send(txCtx, msg); err != nil {
			return services.WrapDependency("send invitation email", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation created",
		zap.String("org_id", orgID.String()),
		zap.String("invitation_id", inv.ID.String()),
		zap.String("role", string(role)))

	return inv, nil
}

// Accept converts a pending invitation into a membership. The status flip
// and the capped membership insert share a transaction; losing the capacity
// race rolls the invitation back to pending so it can be retried after a
// seat frees up.
func (s *Service) Accept(ctx context.Context, actorID, invitationID uuid.UUID) (*models.Member, error) {
	inv, user, err := s.invitationForRecipient(ctx, actorID, invitationID)
	if err != nil {
		return nil, err
	}

	member := models.NewMember(inv.OrgID, user.ID, inv.Role)

	err = s.txm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.invites.TransitionStatus(txCtx, inv.ID, models.InvitationPending, models.InvitationAccepted); err != nil {
			if errors.Is(err, repositories.ErrStaleState) {
				return services.ErrInvitationNotPending
			}
			return services.WrapInternal("accept invitation", err)
		}

		if err := s.members.Create(txCtx, member, s.cfg.MemberLimit); err != nil {
			switch {
			case errors.Is(err, repositories.ErrLimitReached):
				return services.ErrMemberLimitReached
			case errors.Is(err, repositories.ErrDuplicate):
				return services.ErrDuplicateMember
			default:
				return services.WrapInternal("create member", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted",
		zap.String("org_id", inv.OrgID.String()),
		zap.String("invitation_id", inv.ID.String()),
		zap.String("member_id", member.ID.String()))

	return member, nil
}

// Reject declines a pending invitation. Only the invited address may reject.
func (s *Service) Reject(ctx context.Context, actorID, invitationID uuid.UUID) error {
	inv, _, err := s.invitationForRecipient(ctx, actorID, invitationID)
	if err != nil {
		return err
	}

	if err := s.invites.TransitionStatus(ctx, inv.ID, models.InvitationPending, models.InvitationRejected); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return services.ErrInvitationNotPending
		}
		return services.WrapInternal("reject invitation", err)
	}

	s.logger.Info("invitation rejected",
		zap.String("org_id", inv.OrgID.String()),
		zap.String("invitation_id", inv.ID.String()))

	return nil
}

// Cancel withdraws a pending invitation. Admins and owners of the
// organization may cancel.
func (s *Service) Cancel(ctx context.Context, actorID, invitationID uuid.UUID) error {
	inv, err := s.invitationForManager(ctx, actorID, invitationID, ActionCancelInvitation)
	if err != nil {
		return err
	}

	if err := s.invites.TransitionStatus(ctx, inv.ID, models.InvitationPending, models.InvitationCancelled); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return services.ErrInvitationNotPending
		}
		return services.WrapInternal("cancel invitation", err)
	}

	s.logger.Info("invitation cancelled",
		zap.String("org_id", inv.OrgID.String()),
		zap.String("invitation_id", inv.ID.String()))

	return nil
}

// Resend re-delivers the invitation email. Expiry is left untouched unless
// the resend-refresh policy is enabled.
func (s *Service) Resend(ctx context.Context, actorID, invitationID uuid.UUID) (*models.Invitation, error) {
	inv, err := s.invitationForManager(ctx, actorID, invitationID, ActionResendInvitation)
	if err != nil {
		return nil, err
	}

	if s.cfg.ResendRefreshesExpiry {
		expiresAt := s.now().UTC().Add(s.cfg.InvitationTTL)
		if err := s.invites.UpdateExpiresAt(ctx, inv.ID, expiresAt); err != nil {
			return nil, services.WrapInternal("refresh invitation expiry", err)
		}
		inv.ExpiresAt = expiresAt
	}

	org, err := s.orgs.GetByID(ctx, inv.OrgID)
	if err != nil {
		return nil, services.WrapInternal("get organization", err)
	}
	inviter, err := s.users.GetByID(ctx, inv.InviterID)
	if err != nil {
		return nil, services.WrapInternal("get inviter", err)
	}

	msg := email.Invitation(org.Name, inviter.Name, s.invitationURL(inv.ID))
	msg.To = inv.Email
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		return nil, services.WrapDependency("resend invitation email", err)
	}

	s.logger.Info("invitation resent",
		zap.String("org_id", inv.OrgID.String()),
		zap.String("invitation_id", inv.ID.String()))

	return inv, nil
}

// ListInvitations returns an organization's invitation history. The caller
// must be a member.
func (s *Service) ListInvitations(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.Invitation, error) {
	if _, err := s.requireMembership(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	invs, err := s.invites.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("list invitations", err)
	}
	return invs, nil
}

// ListMyInvitations returns the caller's actionable invitations across all
// organizations. Expired ones are filtered out.
func (s *Service) ListMyInvitations(ctx context.Context, actorID uuid.UUID) ([]*models.Invitation, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("get user", err)
	}

	invs, err := s.invites.ListPendingByEmail(ctx, user.Email)
	if err != nil {
		return nil, services.WrapInternal("list pending invitations", err)
	}

	now := s.now()
	actionable := make([]*models.Invitation, 0, len(invs))
	for _, inv := range invs {
		if inv.Actionable(now) {
			actionable = append(actionable, inv)
		}
	}
	return actionable, nil
}

// invitationForRecipient loads an invitation and verifies the caller is the
// invited address and the invitation is still actionable.
func (s *Service) invitationForRecipient(ctx context.Context, actorID, invitationID uuid.UUID) (*models.Invitation, *models.User, error) {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, services.ErrInvitationNotFound
		}
		return nil, nil, services.WrapInternal("get invitation", err)
	}

	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, services.ErrUserNotFound
		}
		return nil, nil, services.WrapInternal("get user", err)
	}

	if utils.NormalizeEmail(user.Email) != inv.Email {
		return nil, nil, services.ErrEmailMismatch
	}
	if inv.Status != models.InvitationPending {
		return nil, nil, services.ErrInvitationNotPending
	}
	if inv.Expired(s.now()) {
		return nil, nil, services.ErrInvitationExpired
	}

	return inv, user, nil
}

// invitationForManager loads an invitation and verifies the caller may
// manage it. Terminal and expired invitations are rejected.
func (s *Service) invitationForManager(ctx context.Context, actorID, invitationID uuid.UUID, action Action) (*models.Invitation, error) {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvitationNotFound
		}
		return nil, services.WrapInternal("get invitation", err)
	}

	actor, err := s.requireMembership(ctx, inv.OrgID, actorID)
	if err != nil {
		return nil, err
	}

	if d := Evaluate(actor.Role, action, nil); !d.Allowed {
		return nil, permissionError(d)
	}

	if inv.Status != models.InvitationPending {
		return nil, services.ErrInvitationNotPending
	}
	if inv.Expired(s.now()) {
		return nil, services.ErrInvitationExpired
	}

	return inv, nil
}

func (s *Service) invitationURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/invitations/%s", s.appURL, id)
}
