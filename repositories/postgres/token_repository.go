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

// TokenRepository implements repositories.TokenRepository
type TokenRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTokenRepository creates a new credential token repository
func NewTokenRepository(db *DB, logger *zap.Logger) repositories.TokenRepository {
	return &TokenRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new token record
func (r *TokenRepository) Create(ctx context.Context, token *models.CredentialToken) error {
	query := `
		INSERT INTO credential_tokens (id, user_id, purpose, token_hash, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Purpose,
		token.TokenHash,
		token.ExpiresAt,
		token.UsedAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create credential token: %w", err)
	}

	return nil
}

// GetByHash retrieves a token by its hash and purpose
func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string, purpose models.TokenPurpose) (*models.CredentialToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		FROM credential_tokens
		WHERE token_hash = $1 AND purpose = $2
	`

	executor := GetExecutor(ctx, r.db)
	token := &models.CredentialToken{}

	err := executor.QueryRowContext(ctx, query, tokenHash, purpose).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credential token: %w", err)
	}

	return token, nil
}

// Consume marks a token used. The used_at IS NULL condition makes double
// consumption observable as zero rows affected.
func (r *TokenRepository) Consume(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `
		UPDATE credential_tokens
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("failed to consume credential token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrStaleState
	}

	r.logger.Debug("credential token consumed", zap.String("id", id.String()))
	return nil
}
