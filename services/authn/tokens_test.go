package authn

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/saas-starter/config"
)

func testProvider(ttl time.Duration) *TokenProvider {
	return NewTokenProvider(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
		Issuer:    "saas-starter-test",
	})
}

func TestIssueAndValidate(t *testing.T) {
	p := testProvider(time.Hour)
	userID := uuid.New()

	token, expiresAt, err := p.Issue(userID, "a@example.com", "Alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := p.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestValidateExpiredToken(t *testing.T) {
	p := testProvider(-time.Minute)

	token, _, err := p.Issue(uuid.New(), "a@example.com", "Alice")
	require.NoError(t, err)

	_, err = p.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongSecret(t *testing.T) {
	p := testProvider(time.Hour)
	other := NewTokenProvider(config.AuthConfig{
		JWTSecret: "different-secret",
		TokenTTL:  time.Hour,
		Issuer:    "saas-starter-test",
	})

	token, _, err := p.Issue(uuid.New(), "a@example.com", "Alice")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateGarbage(t *testing.T) {
	p := testProvider(time.Hour)

	_, err := p.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, h.Compare(hash, "correct horse battery staple"))
	assert.Error(t, h.Compare(hash, "wrong"))
}

func TestHasherClampsCost(t *testing.T) {
	assert.Equal(t, 10, NewHasher(0).Cost)
	assert.Equal(t, 4, NewHasher(1).Cost)
	assert.Equal(t, 31, NewHasher(99).Cost)
}
