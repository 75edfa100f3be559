package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/services/authn"
	"github.com/launchkit/saas-starter/utils"
)

// AuthHandler handles signup, login, and credential recovery requests
type AuthHandler struct {
	svc          *authn.Service
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie should be true
// everywhere except local development.
func NewAuthHandler(svc *authn.Service, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// HandleSignup handles POST /auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	session, err := h.svc.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setSessionCookie(w, session)
	_ = utils.WriteCreated(w, session)
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.setSessionCookie(w, session)
	_ = utils.WriteOK(w, session)
}

// HandleLogout handles POST /auth/logout. Sessions are stateless; logout
// just clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteNoContent(w)
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleForgotPassword handles POST /auth/forgot-password. Always responds
// 204 so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleResetPassword handles POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleVerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if err := validateRequest(&req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Token); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleResendVerification handles POST /auth/resend-verification
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.ResendVerification(r.Context(), userID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *authn.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
