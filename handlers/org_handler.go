package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/services/orgs"
	"github.com/launchkit/saas-starter/utils"
)

// OrganizationHandler handles organization CRUD and membership self-service
type OrganizationHandler struct {
	svc    *orgs.Service
	logger *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(svc *orgs.Service, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{svc: svc, logger: logger}
}

type organizationRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// HandleCreate handles POST /organizations
func (h *OrganizationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req organizationRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	org, err := h.svc.CreateOrganization(r.Context(), userID, req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, org)
}

// HandleList handles GET /organizations
func (h *OrganizationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	list, err := h.svc.ListOrganizations(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, list)
}

// HandleGet handles GET /organizations/{orgID}
func (h *OrganizationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	detail, err := h.svc.GetOrganization(r.Context(), userID, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, detail)
}

// HandleUpdate handles PATCH /organizations/{orgID}
func (h *OrganizationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var req organizationRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	org, err := h.svc.UpdateOrganization(r.Context(), userID, orgID, req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, org)
}

// HandleDelete handles DELETE /organizations/{orgID}
func (h *OrganizationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.DeleteOrganization(r.Context(), userID, orgID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandlePermissions handles GET /organizations/{orgID}/permissions
func (h *OrganizationHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	perms, err := h.svc.Permissions(r.Context(), userID, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, perms)
}

// HandleLeave handles POST /organizations/{orgID}/leave
func (h *OrganizationHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.Leave(r.Context(), userID, orgID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
