package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrEmptyRequestID = errors.New("transaction request id cannot be empty")

// Transaction is a single payment initiation attempt as recorded in the store.
type Transaction struct {
	ID                   uuid.UUID       `json:"id"`
	TransactionRequestID string          `json:"transaction_request_id"`
	Reference            string          `json:"reference"`
	Phone                string          `json:"phone"`
	Amount               decimal.Decimal `json:"amount"`
	Status               Status          `json:"status"`
	ReceiptNumber        string          `json:"receipt_number,omitempty"`
	ResultDescription    string          `json:"result_description,omitempty"`
	ResultCode           string          `json:"result_code,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// NewPendingTransaction builds the row written after the gateway accepts a charge.
func NewPendingTransaction(requestID, reference, phone string, amount decimal.Decimal) (*Transaction, error) {
	if requestID == "" {
		return nil, ErrEmptyRequestID
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:                   uuid.New(),
		TransactionRequestID: requestID,
		Reference:            reference,
		Phone:                phone,
		Amount:               amount,
		Status:               StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// SucceededEvent is the outbox payload written when a transaction is confirmed.
type SucceededEvent struct {
	TransactionID        uuid.UUID       `json:"transaction_id"`
	TransactionRequestID string          `json:"transaction_request_id"`
	Reference            string          `json:"reference"`
	Phone                string          `json:"phone"`
	Amount               decimal.Decimal `json:"amount"`
	OccurredAt           time.Time       `json:"occurred_at"`
}

// NewSucceededEvent describes the confirmation of t.
func NewSucceededEvent(t *Transaction) SucceededEvent {
	return SucceededEvent{
		TransactionID:        t.ID,
		TransactionRequestID: t.TransactionRequestID,
		Reference:            t.Reference,
		Phone:                t.Phone,
		Amount:               t.Amount,
		OccurredAt:           time.Now().UTC(),
	}
}

// References returns the identifiers an application may carry as its payment reference.
func (e SucceededEvent) References() []string {
	refs := make([]string, 0, 2)
	if e.Reference != "" {
		refs = append(refs, e.Reference)
	}
	if e.TransactionRequestID != "" && e.TransactionRequestID != e.Reference {
		refs = append(refs, e.TransactionRequestID)
	}
	return refs
}
