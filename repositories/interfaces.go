package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/launchkit/saas-starter/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// OrganizationRepository handles organization data operations
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// GetByID retrieves an organization by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)

	// GetBySlug retrieves an organization by slug
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// ListByUser retrieves the organizations a user is a member of
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)

	// Update updates an organization's name and slug
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization. Members and invitations cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemberRepository handles membership data operations. The mutating
// operations re-validate the last-owner and member-cap invariants inside the
// statement itself so concurrent requests cannot corrupt state.
type MemberRepository interface {
	// Create inserts a member only while the organization stays under limit.
	// Returns ErrLimitReached when the guard fails and ErrDuplicate when the
	// user is already a member.
	Create(ctx context.Context, member *models.Member, limit int) error

	// GetByID retrieves a member by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)

	// GetByOrgAndUser retrieves a user's membership in an organization
	GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error)

	// ListByOrg retrieves all members of an organization with user details
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.MemberWithUser, error)

	// CountByOrg counts the members of an organization
	CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error)

	// CountOwners counts the members with role owner in an organization
	CountOwners(ctx context.Context, orgID uuid.UUID) (int, error)

	// UpdateRoleGuarded updates a member's role unless the change would
	// demote the organization's last owner; returns ErrLastOwner then.
	UpdateRoleGuarded(ctx context.Context, memberID uuid.UUID, newRole models.Role) error

	// DeleteGuarded removes a member unless doing so would remove the
	// organization's last owner; returns ErrLastOwner then.
	DeleteGuarded(ctx context.Context, memberID uuid.UUID) error
}

// InvitationRepository handles invitation data operations. Invitations are
// never physically deleted; terminal states are recorded via status
// transitions and expiration is derived at read time.
type InvitationRepository interface {
	// Create creates a new invitation
	Create(ctx context.Context, inv *models.Invitation) error

	// GetByID retrieves an invitation by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)

	// ListByOrg retrieves all invitations for an organization, newest first
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error)

	// ListPendingByEmail retrieves pending invitations addressed to an email
	ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error)

	// FindPendingByOrgAndEmail finds a pending invitation for an email within
	// an organization; returns ErrNotFound when none exists.
	FindPendingByOrgAndEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error)

	// TransitionStatus moves an invitation from one status to another
	// atomically; returns ErrStaleState when the stored status no longer
	// matches from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error

	// UpdateExpiresAt refreshes an invitation's expiration timestamp
	UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
}

// UserRepository handles user identity data operations
type UserRepository interface {
	// Create creates a new user; returns ErrDuplicate when the email is taken
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdatePassword replaces a user's password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// MarkEmailVerified marks a user's email as verified
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
}

// TokenRepository handles single-use credential tokens (password reset,
// email verification)
type TokenRepository interface {
	// Create stores a new token record
	Create(ctx context.Context, token *models.CredentialToken) error

	// GetByHash retrieves a token by its hash and purpose
	GetByHash(ctx context.Context, tokenHash string, purpose models.TokenPurpose) (*models.CredentialToken, error)

	// Consume marks a token used; returns ErrStaleState when it was already
	// consumed concurrently.
	Consume(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}

// Repositories bundles all repository instances
type Repositories struct {
	Organizations OrganizationRepository
	Members       MemberRepository
	Invitations   InvitationRepository
	Users         UserRepository
	Tokens        TokenRepository
}
