package service

import (
	"context"

	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/platform/swiftpay"
)

// PaymentService defines the interface for payment initiation
type PaymentService interface {
	// Ready reports shared.ErrConfiguration when the store or gateway settings are absent.
	Ready() error

	// Initiate validates the request, charges the phone through the gateway and records a pending transaction.
	// Returns shared.ErrConfiguration, shared.ErrValidation or a gateway error; store failures are
	// reported through InitiateResult.Persistence, never as an error.
	Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)
}

// StatusService defines the interface for payment status resolution
type StatusService interface {
	// Resolve answers the canonical status of a reference or transaction request id.
	// Unknown references resolve to PENDING; only store failures are returned as shared.ErrLookup.
	Resolve(ctx context.Context, reference string) (*payment.StatusView, error)

	// Reconcile resolves a stored transaction, confirming it when the proxy reports success.
	Reconcile(ctx context.Context, t *payment.Transaction) (payment.CanonicalStatus, error)
}

// ApplicationService defines the interface for lead capture
type ApplicationService interface {
	// Ready reports shared.ErrConfiguration when the store is absent.
	Ready() error

	// Submit stores an unpaid application. It never waits on payment state.
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error)
}

// Gateway charges a phone number
type Gateway interface {
	Charge(ctx context.Context, req swiftpay.ChargeRequest) (*swiftpay.ChargeResult, error)
}

// VerificationProxy reports the provider-side state of a charge
type VerificationProxy interface {
	Query(ctx context.Context, checkoutID string) (payment.CanonicalStatus, bool, error)
}
