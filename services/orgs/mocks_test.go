package orgs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/launchkit/saas-starter/email"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
)

// MockOrganizationRepository is a mock implementation of OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if org := args.Get(0); org != nil {
		return org.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	args := m.Called(ctx, slug)
	if org := args.Get(0); org != nil {
		return org.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	args := m.Called(ctx, userID)
	if orgs := args.Get(0); orgs != nil {
		return orgs.([]*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *models.Member, limit int) error {
	args := m.Called(ctx, member, limit)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, id)
	if member := args.Get(0); member != nil {
		return member.(*models.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, orgID, userID)
	if member := args.Get(0); member != nil {
		return member.(*models.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.MemberWithUser, error) {
	args := m.Called(ctx, orgID)
	if members := args.Get(0); members != nil {
		return members.([]*models.MemberWithUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberRepository) CountOwners(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

func (m *MockMemberRepository) UpdateRoleGuarded(ctx context.Context, memberID uuid.UUID, newRole models.Role) error {
	args := m.Called(ctx, memberID, newRole)
	return args.Error(0)
}

func (m *MockMemberRepository) DeleteGuarded(ctx context.Context, memberID uuid.UUID) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

// MockInvitationRepository is a mock implementation of InvitationRepository
type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, id)
	if inv := args.Get(0); inv != nil {
		return inv.(*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error) {
	args := m.Called(ctx, orgID)
	if invs := args.Get(0); invs != nil {
		return invs.([]*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	args := m.Called(ctx, email)
	if invs := args.Get(0); invs != nil {
		return invs.([]*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) FindPendingByOrgAndEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	args := m.Called(ctx, orgID, email)
	if inv := args.Get(0); inv != nil {
		return inv.(*models.Invitation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvitationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockInvitationRepository) UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTransactionManager runs transaction bodies inline without a database
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

// MockSender records sent email
type MockSender struct {
	mock.Mock
	Sent []email.Message
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) (string, error) {
	args := m.Called(ctx, msg)
	if args.Error(1) == nil {
		m.Sent = append(m.Sent, msg)
	}
	return args.String(0), args.Error(1)
}
