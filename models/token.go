package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose distinguishes single-use credential tokens
type TokenPurpose string

const (
	TokenPasswordReset     TokenPurpose = "password_reset"
	TokenEmailVerification TokenPurpose = "email_verification"
)

const (
	// PasswordResetTTL is how long a password reset link stays valid
	PasswordResetTTL = time.Hour
	// EmailVerificationTTL is how long a verification link stays valid
	EmailVerificationTTL = 24 * time.Hour
)

// CredentialToken is a single-use token backing the password reset and email
// verification flows. Only the SHA-256 hash of the token is stored.
type CredentialToken struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Purpose   TokenPurpose `json:"purpose" db:"purpose"`
	TokenHash string       `json:"-" db:"token_hash"`
	ExpiresAt time.Time    `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the CredentialToken model
func (CredentialToken) TableName() string {
	return "credential_tokens"
}

// NewCredentialToken creates a token record expiring ttl from now
func NewCredentialToken(userID uuid.UUID, purpose TokenPurpose, tokenHash string, ttl time.Duration) *CredentialToken {
	now := time.Now()
	return &CredentialToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Usable reports whether the token can still be consumed at the given time
func (t *CredentialToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
