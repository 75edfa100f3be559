package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/saas-starter/middleware"
	"github.com/launchkit/saas-starter/services"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme","bogus":true}`))

	var dst organizationRequest
	err := decodeJSON(req, &dst)

	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestDecodeJSONValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme"}`))

	var dst organizationRequest
	require.NoError(t, decodeJSON(req, &dst))
	assert.Equal(t, "Acme", dst.Name)
}

func TestValidateRequestFieldDetails(t *testing.T) {
	err := validateRequest(&signupRequest{Email: "not-an-email", Password: "short"})

	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))

	details := services.GetErrorDetails(err)
	assert.Contains(t, details, "Email")
	assert.Contains(t, details, "Name")
	assert.Contains(t, details, "Password")
}

func TestValidateRequestValid(t *testing.T) {
	require.NoError(t, validateRequest(&signupRequest{
		Email:    "a@example.com",
		Name:     "Ada",
		Password: "correct horse",
	}))
}

func TestValidateRequestRoleOneOf(t *testing.T) {
	err := validateRequest(&updateRoleRequest{Role: "superuser"})

	require.Error(t, err)
	assert.Contains(t, services.GetErrorDetails(err), "Role")
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orgID", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := pathUUID(req, "orgID")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPathUUIDInvalid(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orgID", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	_, err := pathUUID(req, "orgID")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestCurrentUserIDUnauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	_, ok := currentUserID(rec, req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserIDAuthenticated(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.Claims{
		UserID: userID,
		Email:  "a@example.com",
	}))
	rec := httptest.NewRecorder()

	got, ok := currentUserID(rec, req)

	assert.True(t, ok)
	assert.Equal(t, userID, got)
}
