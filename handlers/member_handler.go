package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/services/orgs"
	"github.com/launchkit/saas-starter/utils"
)

// MemberHandler handles member roster management
type MemberHandler struct {
	svc    *orgs.Service
	logger *zap.Logger
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(svc *orgs.Service, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, logger: logger}
}

type updateRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=member admin owner"`
}

// HandleList handles GET /organizations/{orgID}/members
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	members, err := h.svc.ListMembers(r.Context(), userID, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, members)
}

// HandleUpdateRole handles PATCH /members/{memberID}
func (h *MemberHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	memberID, err := pathUUID(r, "memberID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	member, err := h.svc.UpdateMemberRole(r.Context(), userID, memberID, req.Role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, member)
}

// HandleRemove handles DELETE /members/{memberID}
func (h *MemberHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	memberID, err := pathUUID(r, "memberID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.RemoveMember(r.Context(), userID, memberID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
