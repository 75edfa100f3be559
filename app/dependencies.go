package app

import (
	"context"
	"fmt"

	"github.com/launchkit/saas-starter/config"
	"github.com/launchkit/saas-starter/email"
	"github.com/launchkit/saas-starter/handlers"
	"github.com/launchkit/saas-starter/middleware"
	"github.com/launchkit/saas-starter/repositories"
	"github.com/launchkit/saas-starter/repositories/postgres"
	"github.com/launchkit/saas-starter/services/authn"
	"github.com/launchkit/saas-starter/services/billing"
	"github.com/launchkit/saas-starter/services/orgs"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Services
	Mailer         email.Sender
	AuthService    *authn.Service
	OrgService     *orgs.Service
	BillingService *billing.Service

	// Handlers
	AuthHandler       *handlers.AuthHandler
	OrgHandler        *handlers.OrganizationHandler
	MemberHandler     *handlers.MemberHandler
	InvitationHandler *handlers.InvitationHandler
	BillingHandler    *handlers.BillingHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, schema, and repositories
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Repos = factory.NewRepositories()
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices wires the domain services over the repositories
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Mailer = email.NewResendClient(cfg.Email, d.Logger)

	hasher := authn.NewHasher(cfg.Auth.BcryptCost)
	tokens := authn.NewTokenProvider(cfg.Auth)
	d.AuthService = authn.NewService(
		d.Repos.Users,
		d.Repos.Tokens,
		hasher,
		tokens,
		d.Mailer,
		cfg.AppURL,
		d.Logger,
	)

	d.OrgService = orgs.NewService(
		d.Repos,
		d.TxManager,
		d.Mailer,
		cfg.Orgs,
		cfg.AppURL,
		d.Logger,
	)

	stripe := billing.NewStripeClient(cfg.Billing, d.Logger)
	d.BillingService = billing.NewService(stripe, cfg.Billing, d.Logger)

	d.AuthMiddleware = middleware.NewAuthMiddleware(tokens, d.Logger)
}

// initHandlers wires the HTTP handlers over the services
func (d *Dependencies) initHandlers(cfg *config.Config) {
	secureCookie := cfg.IsProduction()

	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, secureCookie, d.Logger)
	d.OrgHandler = handlers.NewOrganizationHandler(d.OrgService, d.Logger)
	d.MemberHandler = handlers.NewMemberHandler(d.OrgService, d.Logger)
	d.InvitationHandler = handlers.NewInvitationHandler(d.OrgService, d.Logger)
	d.BillingHandler = handlers.NewBillingHandler(d.BillingService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
