package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/shopspring/decimal"
)

const (
	initiatePath    = "/api/initiate-payment"
	statusPath      = "/api/payment-status"
	applicationPath = "/api/submit-application"
)

// PaymentAPI is the portal's view of the payments service.
type PaymentAPI interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	PaymentStatus(ctx context.Context, reference string) (payment.CanonicalStatus, error)
	SubmitApplication(ctx context.Context, req ApplicationRequest) (*ApplicationResponse, error)
}

type InitiateRequest struct {
	PhoneNumber string          `json:"phoneNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type InitiateResponse struct {
	RequestID            string      `json:"requestId"`
	CheckoutRequestID    string      `json:"checkoutRequestId"`
	TransactionRequestID string      `json:"transactionRequestId"`
	Reference            string      `json:"reference"`
	Description          string      `json:"description"`
	Amount               json.Number `json:"amount"`
}

// PollingID is the first non-empty of checkoutRequestId, requestId, transactionRequestId and reference.
func (r *InitiateResponse) PollingID() string {
	for _, id := range []string{r.CheckoutRequestID, r.RequestID, r.TransactionRequestID, r.Reference} {
		if id != "" {
			return id
		}
	}
	return ""
}

type ApplicationRequest struct {
	Phone            string           `json:"phone"`
	UserID           string           `json:"userId,omitempty"`
	PaymentReference string           `json:"paymentReference,omitempty"`
	JobTitle         string           `json:"jobTitle,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
}

type ApplicationResponse struct {
	ApplicationID string  `json:"applicationId"`
	Reference     *string `json:"reference"`
}

// ErrRequestFailed is an answer with success false or an error status code.
type ErrRequestFailed struct {
	StatusCode int
	Message    string
}

func (e ErrRequestFailed) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Payment *struct {
		Status string `json:"status"`
	} `json:"payment"`
	Error json.RawMessage `json:"error"` // a string, or the upstream payload on a rejection
}

func (e *envelope) errorText() string {
	if len(e.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		return text
	}
	return string(e.Error)
}

// APIClient implements PaymentAPI over HTTP.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	env, err := c.do(ctx, http.MethodPost, initiatePath, req)
	if err != nil {
		return nil, err
	}

	var out InitiateResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("failed to decode initiation data: %w", err)
		}
	}
	return &out, nil
}

// PaymentStatus returns the canonical status; any other answer is an error the poller skips.
func (c *APIClient) PaymentStatus(ctx context.Context, reference string) (payment.CanonicalStatus, error) {
	env, err := c.do(ctx, http.MethodGet, statusPath+"?reference="+url.QueryEscape(reference), nil)
	if err != nil {
		return "", err
	}
	if env.Payment == nil || env.Payment.Status == "" {
		return "", fmt.Errorf("status answer for %s carries no payment status", reference)
	}

	status := payment.CanonicalStatus(env.Payment.Status)
	switch status {
	case payment.CanonicalPending, payment.CanonicalSuccess, payment.CanonicalFailed:
		return status, nil
	default:
		return "", fmt.Errorf("unexpected payment status %q", env.Payment.Status)
	}
}

func (c *APIClient) SubmitApplication(ctx context.Context, req ApplicationRequest) (*ApplicationResponse, error) {
	env, err := c.do(ctx, http.MethodPost, applicationPath, req)
	if err != nil {
		return nil, err
	}

	var out ApplicationResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("failed to decode application data: %w", err)
		}
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		message := env.Message
		if message == "" {
			message = env.errorText()
		}
		return nil, ErrRequestFailed{StatusCode: resp.StatusCode, Message: message}
	}
	return &env, nil
}
