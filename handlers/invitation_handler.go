package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/services/orgs"
	"github.com/launchkit/saas-starter/utils"
)

// InvitationHandler handles the invitation lifecycle
type InvitationHandler struct {
	svc    *orgs.Service
	logger *zap.Logger
}

// NewInvitationHandler creates a new InvitationHandler
func NewInvitationHandler(svc *orgs.Service, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, logger: logger}
}

type createInvitationRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"omitempty,oneof=member admin owner"`
}

// HandleCreate handles POST /organizations/{orgID}/invitations
func (h *InvitationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	inv, err := h.svc.Invite(r.Context(), userID, orgID, req.Email, req.Role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, inv)
}

// HandleListByOrg handles GET /organizations/{orgID}/invitations
func (h *InvitationHandler) HandleListByOrg(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	orgID, err := pathUUID(r, "orgID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	invs, err := h.svc.ListInvitations(r.Context(), userID, orgID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, invs)
}

// HandleListMine handles GET /invitations
func (h *InvitationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	invs, err := h.svc.ListMyInvitations(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, invs)
}

// HandleAccept handles POST /invitations/{invitationID}/accept
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	invitationID, err := pathUUID(r, "invitationID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	member, err := h.svc.Accept(r.Context(), userID, invitationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, member)
}

// HandleReject handles POST /invitations/{invitationID}/reject
func (h *InvitationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	invitationID, err := pathUUID(r, "invitationID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.Reject(r.Context(), userID, invitationID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleCancel handles POST /invitations/{invitationID}/cancel
func (h *InvitationHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	invitationID, err := pathUUID(r, "invitationID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, invitationID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleResend handles POST /invitations/{invitationID}/resend
func (h *InvitationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	invitationID, err := pathUUID(r, "invitationID")
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	inv, err := h.svc.Resend(r.Context(), userID, invitationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, inv)
}
