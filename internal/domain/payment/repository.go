package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/domain/outbox"
)

// PersistOutcome reports how much of a transaction made it to the store.
type PersistOutcome int

const (
	NotPersisted PersistOutcome = iota
	DegradedPersisted
	Persisted
)

func (o PersistOutcome) String() string {
	switch o {
	case Persisted:
		return "persisted"
	case DegradedPersisted:
		return "degraded"
	default:
		return "not_persisted"
	}
}

// Repository manages transaction persistence
type Repository interface {
	// Record upserts t keyed by its transaction request id. When the full write fails a minimal
	// row {id, transaction_request_id, amount} is attempted; the error of the full write is
	// returned alongside DegradedPersisted.
	Record(ctx context.Context, t *Transaction) (PersistOutcome, error)
	// FindByReference returns the newest transaction whose reference or transaction request id
	// equals ref.
	FindByReference(ctx context.Context, ref string) (*Transaction, error)
	// MarkSucceeded moves a pending transaction to success as of at and stores event in the
	// same database transaction. It reports false when the row was no longer pending.
	MarkSucceeded(ctx context.Context, id uuid.UUID, at time.Time, event *outbox.Message) (bool, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error)
}

// ErrTransactionNotFound indicates no transaction matches a reference
type ErrTransactionNotFound struct {
	Reference string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.Reference
}
