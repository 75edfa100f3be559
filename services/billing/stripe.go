package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/config"
)

// StripeSubscription is the subset of Stripe's subscription object we read.
type StripeSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type subscriptionList struct {
	Data []StripeSubscription `json:"data"`
}

type checkoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type portalSession struct {
	URL string `json:"url"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// StripeClient is a thin client for the handful of Stripe endpoints the
// billing service uses. Requests are form-encoded per Stripe's API.
type StripeClient struct {
	cfg        config.BillingConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewStripeClient creates a new Stripe API client
func NewStripeClient(cfg config.BillingConfig, logger *zap.Logger) *StripeClient {
	return &StripeClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// ListActiveSubscriptions returns the customer's subscriptions in active or
// trialing status.
func (c *StripeClient) ListActiveSubscriptions(ctx context.Context, customerRef string) ([]StripeSubscription, error) {
	query := url.Values{
		"customer": {customerRef},
		"limit":    {"10"},
	}

	var list subscriptionList
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	active := make([]StripeSubscription, 0, len(list.Data))
	for _, sub := range list.Data {
		if sub.Status == "active" || sub.Status == "trialing" {
			active = append(active, sub)
		}
	}
	return active, nil
}

// CheckoutParams describes a subscription checkout session.
type CheckoutParams struct {
	CustomerRef string
	PriceID     string
	TrialDays   int
	SuccessURL  string
	CancelURL   string
}

// CreateCheckoutSession creates a hosted checkout session and returns its URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	form := url.Values{
		"mode":                                 {"subscription"},
		"client_reference_id":                  {params.CustomerRef},
		"line_items[0][price]":                 {params.PriceID},
		"line_items[0][quantity]":              {"1"},
		"success_url":                          {params.SuccessURL},
		"cancel_url":                           {params.CancelURL},
		"subscription_data[metadata][ref]":     {params.CustomerRef},
	}
	if params.TrialDays > 0 {
		form.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialDays))
	}

	var session checkoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

// CreateBillingPortalSession creates a customer portal session and returns
// its URL.
func (c *StripeClient) CreateBillingPortalSession(ctx context.Context, customerRef, returnURL string) (string, error) {
	form := url.Values{
		"customer":   {customerRef},
		"return_url": {returnURL},
	}

	var session portalSession
	if err := c.do(ctx, http.MethodPost, "/v1/billing_portal/sessions", form, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if c.cfg.SecretKey == "" {
		return fmt.Errorf("stripe not configured")
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	reqURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr stripeError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("stripe returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse stripe response: %w", err)
	}
	return nil
}
