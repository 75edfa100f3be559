package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/config"
)

func newStripeTestClient(baseURL string) *StripeClient {
	return NewStripeClient(config.BillingConfig{
		SecretKey:         "sk_test_key",
		BaseURL:           baseURL,
		ProMonthlyPriceID: "price_monthly",
		ProAnnualPriceID:  "price_annual",
		TrialDays:         14,
		Timeout:           5 * time.Second,
	}, zap.NewNop())
}

func TestListActiveSubscriptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/subscriptions", r.URL.Path)
		assert.Equal(t, "cus_123", r.URL.Query().Get("customer"))
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "sub_1", "status": "active", "current_period_end": 1760000000},
				{"id": "sub_2", "status": "canceled"},
				{"id": "sub_3", "status": "trialing"},
			},
		})
	}))
	defer server.Close()

	client := newStripeTestClient(server.URL)
	subs, err := client.ListActiveSubscriptions(context.Background(), "cus_123")

	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "sub_1", subs[0].ID)
	assert.Equal(t, "sub_3", subs[1].ID)
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "user-1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "price_monthly", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "14", r.PostForm.Get("subscription_data[trial_period_days]"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_1",
			"url": "https://checkout.stripe.com/cs_1",
		})
	}))
	defer server.Close()

	client := newStripeTestClient(server.URL)
	checkoutURL, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		CustomerRef: "user-1",
		PriceID:     "price_monthly",
		TrialDays:   14,
		SuccessURL:  "https://app.example.com/billing?status=success",
		CancelURL:   "https://app.example.com/billing",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", checkoutURL)
}

func TestCreateBillingPortalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user-1", r.PostForm.Get("customer"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"url": "https://billing.stripe.com/p_1",
		})
	}))
	defer server.Close()

	client := newStripeTestClient(server.URL)
	portalURL, err := client.CreateBillingPortalSession(context.Background(), "user-1", "https://app.example.com/settings")

	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p_1", portalURL)
}

func TestStripeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"type":    "card_error",
				"message": "Your card was declined.",
			},
		})
	}))
	defer server.Close()

	client := newStripeTestClient(server.URL)
	_, err := client.ListActiveSubscriptions(context.Background(), "cus_123")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestStripeUnconfigured(t *testing.T) {
	client := NewStripeClient(config.BillingConfig{}, zap.NewNop())

	_, err := client.ListActiveSubscriptions(context.Background(), "cus_123")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
