// Package swiftpay issues STK push charges through the SwiftPay mobile-money gateway.
package swiftpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	ServiceName    = "payment service"
	stkPushPath    = "/api/mpesa/stk-push-api"
	rejectFallback = "Payment initiation failed"
)

// ChargeRequest is a normalized phone number and the amount to collect.
type ChargeRequest struct {
	Phone  string
	Amount decimal.Decimal
}

// ChargeResult is an accepted charge.
type ChargeResult struct {
	// CheckoutID is the gateway-assigned identifier; empty when the gateway returned none.
	CheckoutID string
	Payload    map[string]any
}

type chargeBody struct {
	PhoneNumber string      `json:"phone_number"`
	Amount      json.Number `json:"amount"`
	TillID      string      `json:"till_id"`
}

// Client talks to the gateway's STK push endpoint.
type Client struct {
	baseURL string
	apiKey  string
	tillID  string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger, cfg config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		tillID:  cfg.TillID,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Charge asks the gateway to push a payment prompt to the phone.
// The body is read as text before parsing so that a non-JSON answer surfaces as
// shared.ErrUpstreamMalformed. An answer that is not an explicit success is a
// shared.ErrBusinessRejection carrying the provider payload.
func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload, err := json.Marshal(chargeBody{
		PhoneNumber: req.Phone,
		Amount:      json.Number(req.Amount.String()),
		TillID:      c.tillID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("Gateway request failed", "error", err)
		return nil, shared.ErrUpstreamUnavailable{Service: ServiceName, Err: err}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read gateway response", "status", resp.StatusCode, "error", err)
		return nil, shared.ErrUpstreamUnavailable{Service: ServiceName, Err: err}
	}

	var body map[string]any
	if err := json.Unmarshal(text, &body); err != nil || body == nil {
		c.logger.Warn("Gateway returned unparseable body", "status", resp.StatusCode, "body", truncate(string(text), 512))
		return nil, shared.ErrUpstreamMalformed{Service: ServiceName, Body: string(text)}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || !(body["success"] == true || body["status"] == "success") {
		message := stringField(body, "message")
		if message == "" {
			message = rejectFallback
		}
		c.logger.Warn("Gateway rejected charge", "status", resp.StatusCode, "message", message)
		return nil, shared.ErrBusinessRejection{Message: message, Payload: body}
	}

	return &ChargeResult{CheckoutID: checkoutID(body), Payload: body}, nil
}

// checkoutID looks in data.checkout_id, data.request_id, then CheckoutRequestID.
func checkoutID(body map[string]any) string {
	if data, ok := body["data"].(map[string]any); ok {
		if id := stringField(data, "checkout_id"); id != "" {
			return id
		}
		if id := stringField(data, "request_id"); id != "" {
			return id
		}
	}
	return stringField(body, "CheckoutRequestID")
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
