package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/repositories"
	"go.uber.org/zap"
)

// InvitationRepository implements repositories.InvitationRepository
type InvitationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB, logger *zap.Logger) repositories.InvitationRepository {
	return &InvitationRepository{
		db:     db,
		logger: logger,
	}
}

const invitationColumns = `id, org_id, email, role, status, inviter_id, expires_at, created_at, updated_at`

func scanInvitation(scan func(dest ...interface{}) error) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := scan(
		&inv.ID,
		&inv.OrgID,
		&inv.Email,
		&inv.Role,
		&inv.Status,
		&inv.InviterID,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Create creates a new invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, org_id, email, role, status, inviter_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		inv.ID,
		inv.OrgID,
		inv.Email,
		inv.Role,
		inv.Status,
		inv.InviterID,
		inv.ExpiresAt,
		inv.CreatedAt,
		inv.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	r.logger.Debug("invitation created",
		zap.String("id", inv.ID.String()),
		zap.String("org_id", inv.OrgID.String()),
		zap.String("email", inv.Email))
	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	inv, err := scanInvitation(executor.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListByOrg retrieves all invitations for an organization, newest first
func (r *InvitationRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE org_id = $1 ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

// ListPendingByEmail retrieves pending invitations addressed to an email
func (r *InvitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE email = $1 AND status = 'pending' ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

func collectInvitations(rows *sql.Rows) ([]*models.Invitation, error) {
	var invitations []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitation rows: %w", err)
	}

	return invitations, nil
}

// FindPendingByOrgAndEmail finds a pending invitation for an email within an organization
func (r *InvitationRepository) FindPendingByOrgAndEmail(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE org_id = $1 AND email = $2 AND status = 'pending' ORDER BY created_at DESC LIMIT 1`

	executor := GetExecutor(ctx, r.db)
	inv, err := scanInvitation(executor.QueryRowContext(ctx, query, orgID, email).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return inv, nil
}

// TransitionStatus moves an invitation between statuses atomically. The
// from-status condition inside the statement makes a lost race observable as
// zero rows affected instead of a silent double transition.
func (r *InvitationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.InvitationStatus) error {
	query := `
		UPDATE invitations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition invitation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrStaleState
	}

	r.logger.Debug("invitation status transitioned",
		zap.String("id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}

// UpdateExpiresAt refreshes an invitation's expiration timestamp
func (r *InvitationRepository) UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE invitations
		SET expires_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update invitation expiration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	return nil
}
