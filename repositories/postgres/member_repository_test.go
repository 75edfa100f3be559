package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func TestMemberRepository_Create_UnderLimit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())

	member := models.NewMember(uuid.New(), uuid.New(), models.RoleMember)

	mock.ExpectExec(`INSERT INTO members`).
		WithArgs(member.ID, member.OrgID, member.UserID, member.Role,
			member.CreatedAt, member.UpdatedAt, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), member, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_Create_CapGuardRejects(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())

	member := models.NewMember(uuid.New(), uuid.New(), models.RoleMember)

	// zero rows affected: the WHERE count < limit guard failed
	mock.ExpectExec(`INSERT INTO members`).
		WithArgs(member.ID, member.OrgID, member.UserID, member.Role,
			member.CreatedAt, member.UpdatedAt, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), member, 3)
	assert.ErrorIs(t, err, repositories.ErrLimitReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_UpdateRoleGuarded_Allowed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	memberID := uuid.New()

	mock.ExpectExec(`UPDATE members`).
		WithArgs(memberID, models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRoleGuarded(context.Background(), memberID, models.RoleAdmin)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_UpdateRoleGuarded_LastOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	memberID := uuid.New()

	// guard matched nothing, row still exists: last-owner rejection
	mock.ExpectExec(`UPDATE members`).
		WithArgs(memberID, models.RoleMember).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.UpdateRoleGuarded(context.Background(), memberID, models.RoleMember)
	assert.ErrorIs(t, err, repositories.ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_UpdateRoleGuarded_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	memberID := uuid.New()

	mock.ExpectExec(`UPDATE members`).
		WithArgs(memberID, models.RoleMember).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.UpdateRoleGuarded(context.Background(), memberID, models.RoleMember)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_DeleteGuarded_LastOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	memberID := uuid.New()

	mock.ExpectExec(`DELETE FROM members`).
		WithArgs(memberID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.DeleteGuarded(context.Background(), memberID)
	assert.ErrorIs(t, err, repositories.ErrLastOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_DeleteGuarded_Allowed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	memberID := uuid.New()

	mock.ExpectExec(`DELETE FROM members`).
		WithArgs(memberID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteGuarded(context.Background(), memberID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_CountOwners(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMemberRepository(db, zap.NewNop())
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members WHERE org_id = \$1 AND role = 'owner'`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOwners(context.Background(), orgID)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
