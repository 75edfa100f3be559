package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/launchkit/saas-starter/config"
)

// sendRequest is the Resend /emails request payload
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse is the Resend /emails response payload
type sendResponse struct {
	ID string `json:"id"`
}

// errorResponse is the Resend error payload
type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ResendClient sends email through the Resend HTTP API
type ResendClient struct {
	cfg        config.EmailConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewResendClient creates a new Resend email client
func NewResendClient(cfg config.EmailConfig, logger *zap.Logger) *ResendClient {
	return &ResendClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Send delivers a single email and returns the Resend message ID
func (c *ResendClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("resend not configured")
	}

	payload := sendRequest{
		From:    c.cfg.FromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal email request: %w", err)
	}

	sendURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return "", fmt.Errorf("resend returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("resend returned %d", resp.StatusCode)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse email response: %w", err)
	}

	c.logger.Debug("email sent",
		zap.String("to", msg.To),
		zap.String("message_id", result.ID))

	return result.ID, nil
}
