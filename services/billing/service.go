package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/config"
	"github.com/launchkit/saas-starter/models"
	"github.com/launchkit/saas-starter/services"
)

// Provider abstracts the payment processor behind the billing endpoints.
type Provider interface {
	ListActiveSubscriptions(ctx context.Context, customerRef string) ([]StripeSubscription, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreateBillingPortalSession(ctx context.Context, customerRef, returnURL string) (string, error)
}

// Service answers plan questions and brokers checkout and portal sessions.
// Subscription state lives with the payment processor; nothing is persisted
// locally.
type Service struct {
	provider Provider
	cfg      config.BillingConfig
	logger   *zap.Logger
}

// NewService creates a new billing service
func NewService(provider Provider, cfg config.BillingConfig, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetSubscription returns the user's current subscription, or a free-plan
// placeholder when none exists.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	subs, err := s.provider.ListActiveSubscriptions(ctx, userID.String())
	if err != nil {
		return nil, services.WrapDependency("list subscriptions", err)
	}

	if len(subs) == 0 {
		return &models.Subscription{Plan: models.PlanFree, Status: "none"}, nil
	}

	sub := subs[0]
	result := &models.Subscription{
		ID:                sub.ID,
		Plan:              models.PlanPro,
		Status:            sub.Status,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		result.PeriodEnd = &periodEnd
	}
	return result, nil
}

// Checkout starts an upgrade to the pro plan and returns the hosted
// checkout URL.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, plan string, annual bool, successURL, cancelURL string) (string, error) {
	if plan != models.PlanPro {
		return "", services.NewDomainError(services.ErrorTypeValidation, "unknown plan", nil).
			WithDetail("plan", plan)
	}

	priceID := s.cfg.ProMonthlyPriceID
	if annual {
		priceID = s.cfg.ProAnnualPriceID
	}
	if priceID == "" {
		return "", services.NewDomainError(services.ErrorTypeDependency, "billing is not configured", nil)
	}

	checkoutURL, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerRef: userID.String(),
		PriceID:     priceID,
		TrialDays:   s.cfg.TrialDays,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return "", services.WrapDependency("create checkout session", err)
	}

	s.logger.Info("checkout session created",
		zap.String("user_id", userID.String()),
		zap.Bool("annual", annual))

	return checkoutURL, nil
}

// Portal returns a billing portal URL where the user can manage their
// subscription.
func (s *Service) Portal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	portalURL, err := s.provider.CreateBillingPortalSession(ctx, userID.String(), returnURL)
	if err != nil {
		return "", services.WrapDependency("create portal session", err)
	}
	return portalURL, nil
}
