package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"go.uber.org/zap"
)

// MemberRepository implements repositories.MemberRepository
type MemberRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *DB, logger *zap.Logger) repositories.MemberRepository {
	return &MemberRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a member with the member-cap check folded into the statement
// so concurrent inserts against a nearly-full organization cannot exceed the
// limit. Zero rows affected means the cap guard failed.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member, limit int) error {
	query := `
		INSERT INTO members (id, org_id, user_id, role, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE (SELECT COUNT(*) FROM members WHERE org_id = $2) < $7
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
		member.UpdatedAt,
		limit,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrLimitReached
	}

	r.logger.Debug("member created",
		zap.String("id", member.ID.String()),
		zap.String("org_id", member.OrgID.String()),
		zap.String("role", string(member.Role)))
	return nil
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `
		SELECT id, org_id, user_id, role, created_at, updated_at
		FROM members
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	member := &models.Member{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&member.ID,
		&member.OrgID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetByOrgAndUser retrieves a user's membership in an organization
func (r *MemberRepository) GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	query := `
		SELECT id, org_id, user_id, role, created_at, updated_at
		FROM members
		WHERE org_id = $1 AND user_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	member := &models.Member{}

	err := executor.QueryRowContext(ctx, query, orgID, userID).Scan(
		&member.ID,
		&member.OrgID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// ListByOrg retrieves all members of an organization joined with user details
func (r *MemberRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.MemberWithUser, error) {
	query := `
		SELECT m.id, m.org_id, m.user_id, m.role, m.created_at, m.updated_at,
		       u.email, u.name
		FROM members m
		JOIN users u ON u.id = m.user_id
		WHERE m.org_id = $1
		ORDER BY m.created_at ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.MemberWithUser
	for rows.Next() {
		m := &models.MemberWithUser{}
		err := rows.Scan(
			&m.ID,
			&m.OrgID,
			&m.UserID,
			&m.Role,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.Email,
			&m.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

// CountByOrg counts the members of an organization
func (r *MemberRepository) CountByOrg(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM members WHERE org_id = $1`

	executor := GetExecutor(ctx, r.db)
	var count int
	if err := executor.QueryRowContext(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// CountOwners counts the members with role owner in an organization
func (r *MemberRepository) CountOwners(ctx context.Context, orgID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM members WHERE org_id = $1 AND role = 'owner'`

	executor := GetExecutor(ctx, r.db)
	var count int
	if err := executor.QueryRowContext(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return count, nil
}

// UpdateRoleGuarded updates a member's role with the last-owner invariant
// re-validated inside the statement. A demotion only matches when the member
// is not an owner or the organization has more than one owner, so two
// concurrent demotions of the last two owners cannot both succeed.
func (r *MemberRepository) UpdateRoleGuarded(ctx context.Context, memberID uuid.UUID, newRole models.Role) error {
	query := `
		UPDATE members
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		  AND ($2 = 'owner'
		       OR role <> 'owner'
		       OR (SELECT COUNT(*) FROM members m2
		           WHERE m2.org_id = members.org_id AND m2.role = 'owner') > 1)
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, memberID, newRole)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.classifyGuardFailure(ctx, memberID)
	}

	r.logger.Debug("member role updated",
		zap.String("id", memberID.String()),
		zap.String("role", string(newRole)))
	return nil
}

// DeleteGuarded removes a member with the last-owner invariant re-validated
// inside the statement.
func (r *MemberRepository) DeleteGuarded(ctx context.Context, memberID uuid.UUID) error {
	query := `
		DELETE FROM members
		WHERE id = $1
		  AND (role <> 'owner'
		       OR (SELECT COUNT(*) FROM members m2
		           WHERE m2.org_id = members.org_id AND m2.role = 'owner') > 1)
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.classifyGuardFailure(ctx, memberID)
	}

	r.logger.Debug("member deleted", zap.String("id", memberID.String()))
	return nil
}

// classifyGuardFailure distinguishes a missing row from a guard rejection
// after a conditional update matched nothing.
func (r *MemberRepository) classifyGuardFailure(ctx context.Context, memberID uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, memberID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to classify guard failure: %w", err)
	}
	if !exists {
		return repositories.ErrNotFound
	}
	return repositories.ErrLastOwner
}
