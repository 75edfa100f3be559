package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/services/billing"
	"github.com/launchkit/saas-starter/utils"
)

// BillingHandler handles subscription lookups and checkout flows
type BillingHandler struct {
	svc    *billing.Service
	logger *zap.Logger
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(svc *billing.Service, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{svc: svc, logger: logger}
}

type checkoutRequest struct {
	Plan       string `json:"plan" validate:"required"`
	Annual     bool   `json:"annual"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

type portalRequest struct {
	ReturnURL string `json:"return_url" validate:"required,url"`
}

type sessionURLResponse struct {
	URL string `json:"url"`
}

// HandleGetSubscription handles GET /billing/subscription
func (h *BillingHandler) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.GetSubscription(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, sub)
}

// HandleCheckout handles POST /billing/checkout
func (h *BillingHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	url, err := h.svc.Checkout(r.Context(), userID, req.Plan, req.Annual, req.SuccessURL, req.CancelURL)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, sessionURLResponse{URL: url})
}

// HandlePortal handles POST /billing/portal
func (h *BillingHandler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	url, err := h.svc.Portal(r.Context(), userID, req.ReturnURL)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, sessionURLResponse{URL: url})
}
