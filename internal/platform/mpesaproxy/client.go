// Package mpesaproxy queries the verification proxy for the state of an STK push.
package mpesaproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/domain/shared"
)

const ServiceName = "verification proxy"

type queryBody struct {
	CheckoutID string `json:"checkoutId"`
	APIKey     string `json:"apiKey,omitempty"`
}

// Client posts status queries to the proxy URL.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger, cfg config.ProxyConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Query asks the proxy about checkoutID. The boolean is false when the proxy answered
// without a recognizable status. Transport failures, non-2xx answers and unparseable
// bodies are errors.
func (c *Client) Query(ctx context.Context, checkoutID string) (payment.CanonicalStatus, bool, error) {
	payload, err := json.Marshal(queryBody{CheckoutID: checkoutID, APIKey: c.apiKey})
	if err != nil {
		return "", false, fmt.Errorf("failed to encode proxy query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to build proxy query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, shared.ErrUpstreamUnavailable{Service: ServiceName, Err: err}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, shared.ErrUpstreamUnavailable{Service: ServiceName, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, shared.ErrUpstreamUnavailable{
			Service: ServiceName,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var body map[string]any
	if err := json.Unmarshal(text, &body); err != nil || body == nil {
		return "", false, shared.ErrUpstreamMalformed{Service: ServiceName, Body: string(text)}
	}

	status, ok := extractStatus(body)
	c.logger.Debug("Proxy answered", "checkout_id", checkoutID, "status", string(status), "recognized", ok)
	return status, ok, nil
}

// extractStatus tries payment.status, status, then data.status; the first recognizable word wins.
func extractStatus(body map[string]any) (payment.CanonicalStatus, bool) {
	candidates := []any{
		nested(body, "payment", "status"),
		body["status"],
		nested(body, "data", "status"),
	}
	for _, candidate := range candidates {
		word, ok := candidate.(string)
		if !ok {
			continue
		}
		if status, ok := payment.NormalizeProviderStatus(word); ok {
			return status, true
		}
	}
	return "", false
}

func nested(body map[string]any, parent, key string) any {
	m, ok := body[parent].(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}
