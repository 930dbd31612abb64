package audit

import (
	"context"
	"time"
)

// Kind names the exchange being recorded.
type Kind string

const (
	KindGatewayCharge    Kind = "gateway_charge"
	KindPersistence      Kind = "persistence"
	KindPaymentConfirmed Kind = "payment_confirmed"
	KindApplicationsPaid Kind = "applications_paid"
)

// Entry is one record in the payment audit trail.
type Entry struct {
	Kind                 Kind           `json:"kind" bson:"kind"`
	Reference            string         `json:"reference,omitempty" bson:"reference,omitempty"`
	TransactionRequestID string         `json:"transaction_request_id,omitempty" bson:"transaction_request_id,omitempty"`
	Payload              map[string]any `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt            time.Time      `json:"created_at" bson:"created_at"`
}

func NewEntry(kind Kind, reference, requestID string, payload map[string]any) *Entry {
	return &Entry{
		Kind:                 kind,
		Reference:            reference,
		TransactionRequestID: requestID,
		Payload:              payload,
		CreatedAt:            time.Now().UTC(),
	}
}

// Recorder stores audit entries. Failures are for the caller to log; they never fail a payment.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	FindByReference(ctx context.Context, reference string) ([]*Entry, error)
}

// NopRecorder discards entries. It is used when no audit store is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *Entry) error { return nil }

func (NopRecorder) FindByReference(context.Context, string) ([]*Entry, error) { return nil, nil }
