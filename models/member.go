package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a member's privilege level within an organization
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// roleRank orders roles by ascending privilege
var roleRank = map[Role]int{
	RoleMember: 0,
	RoleAdmin:  1,
	RoleOwner:  2,
}

// Valid returns true if the role is one of member, admin, owner
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast returns true if r carries at least the privilege of other
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// CanManageMembers returns true if the role may invite, remove, and
// change roles of other members
func (r Role) CanManageMembers() bool {
	return r == RoleAdmin || r == RoleOwner
}

// Member represents a user's association with one organization
type Member struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Member model
func (Member) TableName() string {
	return "members"
}

// NewMember creates a new Member instance
func NewMember(orgID, userID uuid.UUID, role Role) *Member {
	now := time.Now()
	return &Member{
		ID:        uuid.New(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MemberWithUser is a Member joined with its user identity for API responses
type MemberWithUser struct {
	Member
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
}
