package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the stored lifecycle state of an invitation.
// Expiration is a derived property, never a stored status: a pending
// invitation past its ExpiresAt is inactionable but remains "pending" at rest.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationRejected  InvitationStatus = "rejected"
	InvitationCancelled InvitationStatus = "cancelled"
)

// DefaultInvitationTTL is how long an invitation stays acceptable
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Invitation represents a pending offer of membership sent to an email address
type Invitation struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	OrgID     uuid.UUID        `json:"org_id" db:"org_id"`
	Email     string           `json:"email" db:"email"`
	Role      Role             `json:"role" db:"role"`
	Status    InvitationStatus `json:"status" db:"status"`
	InviterID uuid.UUID        `json:"inviter_id" db:"inviter_id"`
	ExpiresAt time.Time        `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Invitation model
func (Invitation) TableName() string {
	return "invitations"
}

// NewInvitation creates a pending Invitation expiring ttl from now
func NewInvitation(orgID uuid.UUID, email string, role Role, inviterID uuid.UUID, ttl time.Duration) *Invitation {
	now := time.Now()
	return &Invitation{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Role:      role,
		Status:    InvitationPending,
		InviterID: inviterID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Expired reports whether the invitation is past its expiration at the given time
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Actionable reports whether the invitation can still be accepted, rejected,
// cancelled, or resent
func (i *Invitation) Actionable(now time.Time) bool {
	return i.Status == InvitationPending && !i.Expired(now)
}
