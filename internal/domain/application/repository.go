package application

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages application persistence
type Repository interface {
	Create(ctx context.Context, r *Record) (uuid.UUID, error)
	// MarkPaid flips unpaid applications whose payment reference is one of refs.
	// It returns the number of rows changed.
	MarkPaid(ctx context.Context, refs ...string) (int64, error)
}
