package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest represents a request to push a payment prompt
type InitiatePaymentRequest struct {
	PhoneNumber string           `json:"phoneNumber"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description,omitempty"`
}

// InitiatePaymentResponse carries the gateway id under the three names clients read it by
type InitiatePaymentResponse struct {
	RequestID            string      `json:"requestId"`
	CheckoutRequestID    string      `json:"checkoutRequestId"`
	TransactionRequestID string      `json:"transactionRequestId"`
	Reference            string      `json:"reference"`
	Description          string      `json:"description"`
	Amount               json.Number `json:"amount"`
}

// SubmitApplicationRequest represents a captured lead
type SubmitApplicationRequest struct {
	Phone            string           `json:"phone"`
	UserID           string           `json:"userId,omitempty"`
	PaymentReference string           `json:"paymentReference,omitempty"`
	JobTitle         string           `json:"jobTitle,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
}

// SubmitApplicationResponse identifies the stored application
type SubmitApplicationResponse struct {
	ApplicationID string  `json:"applicationId"`
	Reference     *string `json:"reference"`
}
