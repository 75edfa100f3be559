package orgs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/launchkit/saas-starter/services"
)

type inviteFixture struct {
	*fixture
	orgID   uuid.UUID
	ownerID uuid.UUID
	org     *models.Organization
	owner   *models.User
}

func newInviteFixture(t *testing.T) *inviteFixture {
	f := newFixture(t)
	inf := &inviteFixture{
		fixture: f,
		orgID:   uuid.New(),
		ownerID: uuid.New(),
	}
	inf.org = &models.Organization{ID: inf.orgID, Name: "Acme", Slug: "acme"}
	inf.owner = &models.User{ID: inf.ownerID, Email: "owner@example.com", Name: "Owner"}
	return inf
}

// expectInviteContext wires the lookups every successful invite performs.
func (f *inviteFixture) expectInviteContext(memberCount int) {
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleOwner), nil)
	f.members.On("CountByOrg", mock.Anything, f.orgID).Return(memberCount, nil)
	f.users.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, repositories.ErrNotFound)
	f.orgs.On("GetByID", mock.Anything, f.orgID).Return(f.org, nil)
	f.users.On("GetByID", mock.Anything, f.ownerID).Return(f.owner, nil)
}

func TestInviteCreatesPendingInvitation(t *testing.T) {
	f := newInviteFixture(t)
	f.expectInviteContext(1)
	f.invites.On("FindPendingByOrgAndEmail", mock.Anything, f.orgID, "a@example.com").
		Return(nil, repositories.ErrNotFound)
	f.invites.On("Create", mock.Anything, mock.AnythingOfType("*models.Invitation")).Return(nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("msg_1", nil)

	inv, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "A@Example.com", models.RoleMember)

	require.NoError(t, err)
	assert.Equal(t, "a@example.com", inv.Email)
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Equal(t, models.RoleMember, inv.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), inv.ExpiresAt, time.Minute)

	require.Len(t, f.mailer.Sent, 1)
	assert.Equal(t, "a@example.com", f.mailer.Sent[0].To)
	assert.Contains(t, f.mailer.Sent[0].HTML, inv.ID.String())
}

// A second invite to the same address cancels the pending one before
// creating its replacement.
func TestInviteCancelsPriorPending(t *testing.T) {
	f := newInviteFixture(t)
	prior := models.NewInvitation(f.orgID, "a@example.com", models.RoleMember, f.ownerID, 7*24*time.Hour)

	f.expectInviteContext(1)
	f.invites.On("FindPendingByOrgAndEmail", mock.Anything, f.orgID, "a@example.com").Return(prior, nil)
	f.invites.On("TransitionStatus", mock.Anything, prior.ID, models.InvitationPending, models.InvitationCancelled).Return(nil)
	f.invites.On("Create", mock.Anything, mock.AnythingOfType("*models.Invitation")).Return(nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("msg_2", nil)

	inv, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleAdmin)

	require.NoError(t, err)
	assert.NotEqual(t, prior.ID, inv.ID)
	f.invites.AssertCalled(t, "TransitionStatus", mock.Anything, prior.ID, models.InvitationPending, models.InvitationCancelled)
}

func TestInviteReinvitePolicyDisabled(t *testing.T) {
	f := newInviteFixture(t)
	f.svc.cfg.CancelPendingOnReinvite = false
	prior := models.NewInvitation(f.orgID, "a@example.com", models.RoleMember, f.ownerID, 7*24*time.Hour)

	f.expectInviteContext(1)
	f.invites.On("FindPendingByOrgAndEmail", mock.Anything, f.orgID, "a@example.com").Return(prior, nil)

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleMember)

	assert.ErrorIs(t, err, services.ErrInvitationPending)
	f.invites.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInviteAtCapacity(t *testing.T) {
	f := newInviteFixture(t)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleOwner), nil)
	f.members.On("CountByOrg", mock.Anything, f.orgID).Return(3, nil)

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleMember)

	assert.ErrorIs(t, err, services.ErrMemberLimitReached)
}

func TestInviteExistingMember(t *testing.T) {
	f := newInviteFixture(t)
	existing := &models.User{ID: uuid.New(), Email: "a@example.com"}

	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleOwner), nil)
	f.members.On("CountByOrg", mock.Anything, f.orgID).Return(2, nil)
	f.users.On("GetByEmail", mock.Anything, "a@example.com").Return(existing, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, existing.ID).
		Return(member(f.orgID, existing.ID, models.RoleMember), nil)

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleMember)

	assert.ErrorIs(t, err, services.ErrDuplicateMember)
}

func TestInviteMemberRoleForbidden(t *testing.T) {
	f := newInviteFixture(t)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleMember), nil)

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleMember)

	require.Error(t, err)
	assert.True(t, services.IsForbiddenError(err))
}

func TestInviteAdminCannotInviteOwner(t *testing.T) {
	f := newInviteFixture(t)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleAdmin), nil)

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleOwner)

	require.Error(t, err)
	assert.True(t, services.IsForbiddenError(err))
}

// An email delivery failure aborts the invite; no invitation survives the
// rolled-back transaction.
func TestInviteEmailFailureAborts(t *testing.T) {
	f := newInviteFixture(t)
	f.expectInviteContext(1)
	f.invites.On("FindPendingByOrgAndEmail", mock.Anything, f.orgID, "a@example.com").
		Return(nil, repositories.ErrNotFound)
	f.invites.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("", errors.New("resend returned 500"))

	_, err := f.svc.Invite(context.Background(), f.ownerID, f.orgID, "a@example.com", models.RoleMember)

	require.Error(t, err)
	assert.True(t, services.IsDependencyError(err))
}

func newPendingInvitation(f *inviteFixture, email string) *models.Invitation {
	inv := models.NewInvitation(f.orgID, email, models.RoleMember, f.ownerID, 7*24*time.Hour)
	return inv
}

func TestAcceptInvitation(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "a@example.com"}, nil)
	f.invites.On("TransitionStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationAccepted).Return(nil)
	f.members.On("Create", mock.Anything, mock.AnythingOfType("*models.Member"), 3).Return(nil)

	m, err := f.svc.Accept(context.Background(), inviteeID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, f.orgID, m.OrgID)
	assert.Equal(t, inviteeID, m.UserID)
	assert.Equal(t, models.RoleMember, m.Role)
}

// Accepting into a full organization fails with a limit error. The status
// transition and the membership insert share a transaction, so the
// rollback leaves the invitation pending.
func TestAcceptInvitationAtCapacity(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "a@example.com"}, nil)
	f.invites.On("TransitionStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationAccepted).Return(nil)
	f.members.On("Create", mock.Anything, mock.Anything, 3).Return(repositories.ErrLimitReached)

	_, err := f.svc.Accept(context.Background(), inviteeID, inv.ID)

	assert.ErrorIs(t, err, services.ErrMemberLimitReached)
	assert.True(t, services.IsLimitError(err))
}

func TestAcceptExpiredInvitation(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")
	f.now = inv.ExpiresAt.Add(time.Hour)

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "a@example.com"}, nil)

	_, err := f.svc.Accept(context.Background(), inviteeID, inv.ID)

	assert.ErrorIs(t, err, services.ErrInvitationExpired)
	f.invites.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptEmailMismatch(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "someone-else@example.com"}, nil)

	_, err := f.svc.Accept(context.Background(), inviteeID, inv.ID)

	assert.ErrorIs(t, err, services.ErrEmailMismatch)
}

func TestAcceptNonPendingInvitation(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")
	inv.Status = models.InvitationCancelled

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "a@example.com"}, nil)

	_, err := f.svc.Accept(context.Background(), inviteeID, inv.ID)

	assert.ErrorIs(t, err, services.ErrInvitationNotPending)
}

func TestRejectInvitation(t *testing.T) {
	f := newInviteFixture(t)
	inviteeID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.users.On("GetByID", mock.Anything, inviteeID).
		Return(&models.User{ID: inviteeID, Email: "a@example.com"}, nil)
	f.invites.On("TransitionStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationRejected).Return(nil)

	err := f.svc.Reject(context.Background(), inviteeID, inv.ID)

	require.NoError(t, err)
}

func TestCancelInvitationAsAdmin(t *testing.T) {
	f := newInviteFixture(t)
	adminID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, adminID).
		Return(member(f.orgID, adminID, models.RoleAdmin), nil)
	f.invites.On("TransitionStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationCancelled).Return(nil)

	err := f.svc.Cancel(context.Background(), adminID, inv.ID)

	require.NoError(t, err)
}

func TestCancelInvitationAsMemberForbidden(t *testing.T) {
	f := newInviteFixture(t)
	memberID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, memberID).
		Return(member(f.orgID, memberID, models.RoleMember), nil)

	err := f.svc.Cancel(context.Background(), memberID, inv.ID)

	require.Error(t, err)
	assert.True(t, services.IsForbiddenError(err))
}

func TestCancelLostRace(t *testing.T) {
	f := newInviteFixture(t)
	adminID := uuid.New()
	inv := newPendingInvitation(f, "a@example.com")

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, adminID).
		Return(member(f.orgID, adminID, models.RoleAdmin), nil)
	f.invites.On("TransitionStatus", mock.Anything, inv.ID, models.InvitationPending, models.InvitationCancelled).
		Return(repositories.ErrStaleState)

	err := f.svc.Cancel(context.Background(), adminID, inv.ID)

	assert.ErrorIs(t, err, services.ErrInvitationNotPending)
}

// Resend re-delivers the email without touching the stored expiration.
func TestResendKeepsExpiry(t *testing.T) {
	f := newInviteFixture(t)
	inv := newPendingInvitation(f, "a@example.com")
	originalExpiry := inv.ExpiresAt

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleOwner), nil)
	f.orgs.On("GetByID", mock.Anything, f.orgID).Return(f.org, nil)
	f.users.On("GetByID", mock.Anything, f.ownerID).Return(f.owner, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("msg_3", nil)

	resent, err := f.svc.Resend(context.Background(), f.ownerID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, originalExpiry, resent.ExpiresAt)
	f.invites.AssertNotCalled(t, "UpdateExpiresAt", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, f.mailer.Sent, 1)
}

func TestResendRefreshesExpiryWhenEnabled(t *testing.T) {
	f := newInviteFixture(t)
	f.svc.cfg.ResendRefreshesExpiry = true
	inv := newPendingInvitation(f, "a@example.com")
	refreshed := f.now.Add(7 * 24 * time.Hour)

	f.invites.On("GetByID", mock.Anything, inv.ID).Return(inv, nil)
	f.members.On("GetByOrgAndUser", mock.Anything, f.orgID, f.ownerID).
		Return(member(f.orgID, f.ownerID, models.RoleOwner), nil)
	f.invites.On("UpdateExpiresAt", mock.Anything, inv.ID, refreshed).Return(nil)
	f.orgs.On("GetByID", mock.Anything, f.orgID).Return(f.org, nil)
	f.users.On("GetByID", mock.Anything, f.ownerID).Return(f.owner, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return("msg_4", nil)

	resent, err := f.svc.Resend(context.Background(), f.ownerID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, refreshed, resent.ExpiresAt)
}

func TestListMyInvitationsFiltersExpired(t *testing.T) {
	f := newInviteFixture(t)
	userID := uuid.New()
	live := models.NewInvitation(f.orgID, "a@example.com", models.RoleMember, f.ownerID, 7*24*time.Hour)
	stale := models.NewInvitation(f.orgID, "a@example.com", models.RoleMember, f.ownerID, 7*24*time.Hour)
	stale.ExpiresAt = f.now.Add(-time.Hour)

	f.users.On("GetByID", mock.Anything, userID).
		Return(&models.User{ID: userID, Email: "a@example.com"}, nil)
	f.invites.On("ListPendingByEmail", mock.Anything, "a@example.com").
		Return([]*models.Invitation{live, stale}, nil)

	invs, err := f.svc.ListMyInvitations(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, live.ID, invs[0].ID)
}
