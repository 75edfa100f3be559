package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/launchkit/saas-starter/app"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", deps.AuthHandler.HandleSignup)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
			r.Post("/forgot-password", deps.AuthHandler.HandleForgotPassword)
			r.Post("/reset-password", deps.AuthHandler.HandleResetPassword)
			r.Post("/verify-email", deps.AuthHandler.HandleVerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)
				r.Get("/me", deps.AuthHandler.HandleMe)
				r.Post("/resend-verification", deps.AuthHandler.HandleResendVerification)
			})
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/", deps.OrgHandler.HandleCreate)
			r.Get("/", deps.OrgHandler.HandleList)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", deps.OrgHandler.HandleGet)
				r.Patch("/", deps.OrgHandler.HandleUpdate)
				r.Delete("/", deps.OrgHandler.HandleDelete)
				r.Get("/permissions", deps.OrgHandler.HandlePermissions)
				r.Post("/leave", deps.OrgHandler.HandleLeave)
				r.Get("/members", deps.MemberHandler.HandleList)
				r.Get("/invitations", deps.InvitationHandler.HandleListByOrg)
				r.Post("/invitations", deps.InvitationHandler.HandleCreate)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Patch("/{memberID}", deps.MemberHandler.HandleUpdateRole)
			r.Delete("/{memberID}", deps.MemberHandler.HandleRemove)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", deps.InvitationHandler.HandleListMine)
			r.Post("/{invitationID}/accept", deps.InvitationHandler.HandleAccept)
			r.Post("/{invitationID}/reject", deps.InvitationHandler.HandleReject)
			r.Post("/{invitationID}/cancel", deps.InvitationHandler.HandleCancel)
			r.Post("/{invitationID}/resend", deps.InvitationHandler.HandleResend)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/subscription", deps.BillingHandler.HandleGetSubscription)
			r.Post("/checkout", deps.BillingHandler.HandleCheckout)
			r.Post("/portal", deps.BillingHandler.HandlePortal)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	// 405 handler
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"method not allowed"}`))
	})

	return r
}
