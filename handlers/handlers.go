package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/launchkit/saas-starter/middleware"
	"github.com/launchkit/saas-starter/services"
	"github.com/launchkit/saas-starter/utils"
)

// decodeJSON parses a request body into dst. Unknown fields are rejected so
// typos surface as 400s instead of silently dropped input.
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return services.NewDomainError(services.ErrorTypeValidation, "invalid request body", err)
	}
	return nil
}

// validateRequest checks a decoded request body against its validate tags.
// Field failures are carried as details on the returned error.
func validateRequest(req interface{}) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	derr := services.NewDomainError(services.ErrorTypeValidation, "validation failed", err)
	for field, msg := range utils.GetValidationFields(err) {
		derr = derr.WithDetail(field, msg)
	}
	return derr
}

// pathUUID parses a UUID path parameter from the chi route context.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.NewDomainError(services.ErrorTypeValidation, "invalid "+name, err).
			WithDetail(name, raw)
	}
	return id, nil
}

// currentUserID returns the authenticated user's ID. Routes behind
// RequireAuth always have one; a Nil result means the middleware is missing.
func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}
