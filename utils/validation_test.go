package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inviteRequest struct {
	Email string `validate:"required,email"`
	Role  string `validate:"required,oneof=member admin owner"`
}

func TestValidateStruct_Valid(t *testing.T) {
	err := ValidateStruct(inviteRequest{Email: "a@example.com", Role: "admin"})
	assert.NoError(t, err)
}

func TestValidateStruct_FieldErrors(t *testing.T) {
	err := ValidateStruct(inviteRequest{Email: "not-an-email", Role: "superuser"})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	fields := GetValidationFields(err)
	assert.Contains(t, fields["Email"], "valid email")
	assert.Contains(t, fields["Role"], "one of")
}

func TestValidateStruct_Required(t *testing.T) {
	err := ValidateStruct(inviteRequest{})
	require.True(t, IsValidationError(err))

	fields := GetValidationFields(err)
	assert.Contains(t, fields["Email"], "required")
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("5f4dcc3b-aaaa-4bbb-8ccc-1dddddddddd1"))
	assert.Error(t, ValidateUUID("nope"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("user@"))
	assert.Error(t, ValidateEmail(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}
