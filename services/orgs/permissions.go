package orgs

import (
	"github.com/launchkit/saas-starter/models"
)

// Action identifies a membership operation subject to permission checks.
type Action string

const (
	ActionInviteMember       Action = "invite_member"
	ActionUpdateMemberRole   Action = "update_member_role"
	ActionRemoveMember       Action = "remove_member"
	ActionCancelInvitation   Action = "cancel_invitation"
	ActionResendInvitation   Action = "resend_invitation"
	ActionLeaveOrganization  Action = "leave_organization"
	ActionUpdateOrganization Action = "update_organization"
	ActionDeleteOrganization Action = "delete_organization"
)

// Actions lists every action the evaluator understands, in a stable order.
var Actions = []Action{
	ActionInviteMember,
	ActionUpdateMemberRole,
	ActionRemoveMember,
	ActionCancelInvitation,
	ActionResendInvitation,
	ActionLeaveOrganization,
	ActionUpdateOrganization,
	ActionDeleteOrganization,
}

// Target describes the member (or invitation role) an action is aimed at.
// A nil Target means the action has no specific subject.
type Target struct {
	// Role is the target member's current role, or the role an
	// invitation would grant.
	Role models.Role

	// NewRole is the role being assigned; only meaningful for
	// ActionUpdateMemberRole.
	NewRole models.Role

	// IsSelf is true when the actor is acting on their own membership.
	IsSelf bool

	// SoleOwner is true when the target member is the only owner of
	// the organization.
	SoleOwner bool
}

// Decision is the outcome of a permission check. Reason is set only
// when Allowed is false.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Denial reasons that correspond to invariants rather than role gates.
// The service layer maps these onto its error taxonomy.
const (
	reasonSelfRoleChange  = "you cannot change your own role"
	reasonSelfRemoval     = "you cannot remove yourself. Leave the organization instead"
	reasonLastOwnerDemote = "cannot demote the last owner. Promote another member to owner first"
	reasonLastOwnerRemove = "cannot remove the last owner. Promote another member to owner first"
	reasonSoleOwnerLeave  = "the last owner cannot leave. Promote another member to owner or delete the organization"
)

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Evaluate applies the membership permission rules for an actor with the
// given role performing action on target. It is a pure function; callers
// are responsible for loading the actor's membership and populating the
// target from current state.
func Evaluate(actor models.Role, action Action, target *Target) Decision {
	switch action {
	case ActionInviteMember:
		if !actor.CanManageMembers() {
			return deny("only admins and owners can invite members")
		}
		if target != nil && target.Role == models.RoleOwner && actor != models.RoleOwner {
			return deny("only owners can invite new owners")
		}
		return allow()

	case ActionUpdateMemberRole:
		if !actor.CanManageMembers() {
			return deny("only admins and owners can change member roles")
		}
		if target == nil {
			return allow()
		}
		if target.IsSelf {
			return deny(reasonSelfRoleChange)
		}
		if target.Role == models.RoleOwner && target.NewRole != models.RoleOwner && target.SoleOwner {
			return deny(reasonLastOwnerDemote)
		}
		if target.Role == models.RoleOwner && actor != models.RoleOwner {
			return deny("only owners can change another owner's role")
		}
		return allow()

	case ActionRemoveMember:
		if !actor.CanManageMembers() {
			return deny("only admins and owners can remove members")
		}
		if target == nil {
			return allow()
		}
		if target.IsSelf {
			return deny(reasonSelfRemoval)
		}
		if target.Role == models.RoleOwner && target.SoleOwner {
			return deny(reasonLastOwnerRemove)
		}
		if target.Role == models.RoleOwner && actor != models.RoleOwner {
			return deny("only owners can remove another owner")
		}
		return allow()

	case ActionCancelInvitation:
		if !actor.CanManageMembers() {
			return deny("only admins and owners can cancel invitations")
		}
		return allow()

	case ActionResendInvitation:
		if !actor.CanManageMembers() {
			return deny("only admins and owners can resend invitations")
		}
		return allow()

	case ActionLeaveOrganization:
		if target != nil && target.SoleOwner {
			return deny(reasonSoleOwnerLeave)
		}
		return allow()

	case ActionUpdateOrganization:
		if actor != models.RoleOwner {
			return deny("only owners can update the organization")
		}
		return allow()

	case ActionDeleteOrganization:
		if actor != models.RoleOwner {
			return deny("only owners can delete the organization")
		}
		return allow()

	default:
		return deny("unknown action")
	}
}
