package orgs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/config"
	"github.com/launchkit/saas-starter/email"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/launchkit/saas-starter/services"
)

// Service implements organization and membership management.
type Service struct {
	orgs    repositories.OrganizationRepository
	members repositories.MemberRepository
	invites repositories.InvitationRepository
	users   repositories.UserRepository
	txm     repositories.TransactionManager
	mailer  email.Sender
	cfg     config.OrgsConfig
	appURL  string
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new organization service
func NewService(
	repos *repositories.Repositories,
	txm repositories.TransactionManager,
	mailer email.Sender,
	cfg config.OrgsConfig,
	appURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		orgs:    repos.Organizations,
		members: repos.Members,
		invites: repos.Invitations,
		users:   repos.Users,
		txm:     txm,
		mailer:  mailer,
		cfg:     cfg,
		appURL:  appURL,
		logger:  logger,
		now:     time.Now,
	}
}

// OrganizationDetail is an organization together with its member roster and
// the caller's role in it.
type OrganizationDetail struct {
	Organization *models.Organization     `json:"organization"`
	Members      []*models.MemberWithUser `json:"members"`
	Role         models.Role              `json:"role"`
}

// CreateOrganization creates an organization and enrolls the creator as its
// first owner.
func (s *Service) CreateOrganization(ctx context.Context, actorID uuid.UUID, name string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "organization name is required", nil)
	}

	org := models.NewOrganization(name)
	if org.Slug == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "organization name must contain at least one letter or digit", nil)
	}

	err := s.txm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.orgs.Create(txCtx, org); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return services.ErrDuplicateSlug
			}
			return services.WrapInternal("create organization", err)
		}

		owner := models.NewMember(org.ID, actorID, models.RoleOwner)
		if err := s.members.Create(txCtx, owner, s.cfg.MemberLimit); err != nil {
			return services.WrapInternal("enroll creator as owner", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("owner_id", actorID.String()))

	return org, nil
}

// GetOrganization returns an organization with its roster. The caller must
// be a member.
func (s *Service) GetOrganization(ctx context.Context, actorID, orgID uuid.UUID) (*OrganizationDetail, error) {
	membership, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrganizationNotFound
		}
		return nil, services.WrapInternal("get organization", err)
	}

	members, err := s.members.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("list members", err)
	}

	return &OrganizationDetail{
		Organization: org,
		Members:      members,
		Role:         membership.Role,
	}, nil
}

// ListOrganizations returns the organizations the caller belongs to.
func (s *Service) ListOrganizations(ctx context.Context, actorID uuid.UUID) ([]*models.Organization, error) {
	orgs, err := s.orgs.ListByUser(ctx, actorID)
	if err != nil {
		return nil, services.WrapInternal("list organizations", err)
	}
	return orgs, nil
}

// UpdateOrganization renames an organization. Owner only; the slug is
// re-derived from the new name.
func (s *Service) UpdateOrganization(ctx context.Context, actorID, orgID uuid.UUID, name string) (*models.Organization, error) {
	membership, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if d := Evaluate(membership.Role, ActionUpdateOrganization, nil); !d.Allowed {
		return nil, permissionError(d)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "organization name is required", nil)
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrganizationNotFound
		}
		return nil, services.WrapInternal("get organization", err)
	}

	org.Name = name
	org.Slug = models.Slugify(name)
	org.UpdatedAt = s.now().UTC()

	if err := s.orgs.Update(ctx, org); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateSlug
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrOrganizationNotFound
		}
		return nil, services.WrapInternal("update organization", err)
	}

	return org, nil
}

// DeleteOrganization deletes an organization and everything under it.
// Owner only.
func (s *Service) DeleteOrganization(ctx context.Context, actorID, orgID uuid.UUID) error {
	membership, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if d := Evaluate(membership.Role, ActionDeleteOrganization, nil); !d.Allowed {
		return permissionError(d)
	}

	if err := s.orgs.Delete(ctx, orgID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrOrganizationNotFound
		}
		return services.WrapInternal("delete organization", err)
	}

	s.logger.Info("organization deleted",
		zap.String("org_id", orgID.String()),
		zap.String("actor_id", actorID.String()))

	return nil
}

// ListMembers returns the member roster. The caller must be a member.
func (s *Service) ListMembers(ctx context.Context, actorID, orgID uuid.UUID) ([]*models.MemberWithUser, error) {
	if _, err := s.requireMembership(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	members, err := s.members.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("list members", err)
	}
	return members, nil
}

// UpdateMemberRole changes a member's role. The database statement
// re-validates the last-owner invariant, so a permission check passing here
// can still lose to a concurrent demotion.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, memberID uuid.UUID, newRole models.Role) (*models.Member, error) {
	if !newRole.Valid() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "invalid role", nil).
			WithDetail("role", string(newRole))
	}

	target, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrMemberNotFound
		}
		return nil, services.WrapInternal("get member", err)
	}

	actor, err := s.requireMembership(ctx, target.OrgID, actorID)
	if err != nil {
		return nil, err
	}

	owners, err := s.members.CountOwners(ctx, target.OrgID)
	if err != nil {
		return nil, services.WrapInternal("count owners", err)
	}

	d := Evaluate(actor.Role, ActionUpdateMemberRole, &Target{
		Role:      target.Role,
		NewRole:   newRole,
		IsSelf:    target.UserID == actorID,
		SoleOwner: target.Role == models.RoleOwner && owners == 1,
	})
	if !d.Allowed {
		return nil, permissionError(d)
	}

	if err := s.members.UpdateRoleGuarded(ctx, memberID, newRole); err != nil {
		switch {
		case errors.Is(err, repositories.ErrLastOwner):
			return nil, services.ErrLastOwner
		case errors.Is(err, repositories.ErrNotFound):
			return nil, services.ErrMemberNotFound
		default:
			return nil, services.WrapInternal("update member role", err)
		}
	}

	target.Role = newRole
	s.logger.Info("member role updated",
		zap.String("org_id", target.OrgID.String()),
		zap.String("member_id", memberID.String()),
		zap.String("role", string(newRole)))

	return target, nil
}

// RemoveMember removes a member from an organization. As with role updates,
// the last-owner invariant is re-validated in the delete statement.
func (s *Service) RemoveMember(ctx context.Context, actorID, memberID uuid.UUID) error {
	target, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrMemberNotFound
		}
		return services.WrapInternal("get member", err)
	}

	actor, err := s.requireMembership(ctx, target.OrgID, actorID)
	if err != nil {
		return err
	}

	owners, err := s.members.CountOwners(ctx, target.OrgID)
	if err != nil {
		return services.WrapInternal("count owners", err)
	}

	d := Evaluate(actor.Role, ActionRemoveMember, &Target{
		Role:      target.Role,
		IsSelf:    target.UserID == actorID,
		SoleOwner: target.Role == models.RoleOwner && owners == 1,
	})
	if !d.Allowed {
		return permissionError(d)
	}

	if err := s.members.DeleteGuarded(ctx, memberID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrLastOwner):
			return services.ErrLastOwner
		case errors.Is(err, repositories.ErrNotFound):
			return services.ErrMemberNotFound
		default:
			return services.WrapInternal("remove member", err)
		}
	}

	s.logger.Info("member removed",
		zap.String("org_id", target.OrgID.String()),
		zap.String("member_id", memberID.String()))

	return nil
}

// Leave removes the caller's own membership. The sole owner cannot leave;
// they must promote another owner or delete the organization.
func (s *Service) Leave(ctx context.Context, actorID, orgID uuid.UUID) error {
	membership, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return err
	}

	owners, err := s.members.CountOwners(ctx, orgID)
	if err != nil {
		return services.WrapInternal("count owners", err)
	}

	d := Evaluate(membership.Role, ActionLeaveOrganization, &Target{
		Role:      membership.Role,
		IsSelf:    true,
		SoleOwner: membership.Role == models.RoleOwner && owners == 1,
	})
	if !d.Allowed {
		return permissionError(d)
	}

	if err := s.members.DeleteGuarded(ctx, membership.ID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrLastOwner):
			return services.ErrSoleOwnerLeave
		case errors.Is(err, repositories.ErrNotFound):
			return services.ErrMemberNotFound
		default:
			return services.WrapInternal("leave organization", err)
		}
	}

	s.logger.Info("member left organization",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", actorID.String()))

	return nil
}

// Permissions evaluates every action for the caller in an organization. For
// actions with member targets the decision reflects the general case, not a
// specific target.
func (s *Service) Permissions(ctx context.Context, actorID, orgID uuid.UUID) (map[Action]Decision, error) {
	membership, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}

	owners, err := s.members.CountOwners(ctx, orgID)
	if err != nil {
		return nil, services.WrapInternal("count owners", err)
	}

	result := make(map[Action]Decision, len(Actions))
	for _, action := range Actions {
		var target *Target
		if action == ActionLeaveOrganization {
			target = &Target{
				Role:      membership.Role,
				IsSelf:    true,
				SoleOwner: membership.Role == models.RoleOwner && owners == 1,
			}
		}
		result[action] = Evaluate(membership.Role, action, target)
	}
	return result, nil
}

// requireMembership loads the actor's membership or fails with a forbidden
// error. Non-members learn nothing beyond not being a member.
func (s *Service) requireMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	membership, err := s.members.GetByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrNotAMember
		}
		return nil, services.WrapInternal("get membership", err)
	}
	return membership, nil
}

// permissionError maps an evaluator denial onto the service error taxonomy.
// Invariant denials surface as invariant violations; everything else is a
// plain permission failure.
func permissionError(d Decision) error {
	switch d.Reason {
	case reasonSelfRoleChange:
		return services.ErrSelfRoleChange
	case reasonSelfRemoval:
		return services.ErrSelfRemoval
	case reasonLastOwnerDemote, reasonLastOwnerRemove:
		return services.ErrLastOwner
	case reasonSoleOwnerLeave:
		return services.ErrSoleOwnerLeave
	default:
		return services.NewDomainError(services.ErrorTypeForbidden, d.Reason, nil)
	}
}
