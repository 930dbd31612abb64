// Package postgres provides PostgreSQL implementations of the domain repositories.
// Amounts travel as text in both directions so that NUMERIC values never pass through floats.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, transaction_request_id, COALESCE(reference, ''), COALESCE(phone, ''), amount::text, status,
		COALESCE(receipt_number, ''), COALESCE(result_description, ''), COALESCE(result_code, ''), created_at, updated_at`

// TransactionRepository implements the payment.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.TxQuerier
	outbox  outbox.Repository
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository.
// Confirmation events are written through outboxRepo inside the status update transaction.
func NewTransactionRepository(logger *slog.Logger, querier persistence.TxQuerier, outboxRepo outbox.Repository) payment.Repository {
	return &TransactionRepository{
		querier: querier,
		outbox:  outboxRepo,
		logger:  logger,
	}
}

// Record upserts the full row, falling back to a minimal row when the full write fails.
// A terminal status is never overwritten by a repeated initiation.
func (r *TransactionRepository) Record(ctx context.Context, t *payment.Transaction) (payment.PersistOutcome, error) {
	query := `
		INSERT INTO transactions (id, transaction_request_id, reference, phone, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		ON CONFLICT (transaction_request_id) DO UPDATE
		SET reference = EXCLUDED.reference, phone = EXCLUDED.phone, amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.TransactionRequestID,
		t.Reference,
		t.Phone,
		t.Amount.String(),
		t.Status,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err == nil {
		return payment.Persisted, nil
	}

	r.logger.Error("Failed to record transaction, attempting minimal row",
		"transaction_request_id", t.TransactionRequestID,
		"reference", t.Reference,
		"error", err,
	)
	fullErr := fmt.Errorf("failed to record transaction: %w", err)

	minimal := `
		INSERT INTO transactions (id, transaction_request_id, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (transaction_request_id) DO NOTHING
	`
	if _, err := r.querier.Exec(ctx, minimal, t.ID, t.TransactionRequestID, t.Amount.String()); err != nil {
		r.logger.Error("Failed to record minimal transaction",
			"transaction_request_id", t.TransactionRequestID,
			"error", err,
		)
		return payment.NotPersisted, errors.Join(fullErr, fmt.Errorf("failed to record minimal transaction: %w", err))
	}

	return payment.DegradedPersisted, fullErr
}

// FindByReference matches either identifier; the newest row wins if both match different rows.
func (r *TransactionRepository) FindByReference(ctx context.Context, ref string) (*payment.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference = $1 OR transaction_request_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	t, err := scanTransaction(r.querier.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrTransactionNotFound{Reference: ref}
		}
		r.logger.Error("Failed to find transaction", "reference", ref, "error", err)
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	return t, nil
}

// MarkSucceeded only touches rows that are still pending, so a confirmed or failed row is never rewritten.
func (r *TransactionRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, at time.Time, event *outbox.Message) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	updated := false
	err := persistence.ExecuteTx(ctx, r.querier, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, payment.StatusSuccess, at, id, payment.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to mark transaction succeeded: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil
		}
		updated = true

		if event == nil {
			return nil
		}
		return r.outbox.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		r.logger.Error("Failed to mark transaction succeeded", "id", id.String(), "error", err)
		return false, err
	}

	return updated, nil
}

// ListStalePending returns pending rows not touched since olderThan, oldest first.
func (r *TransactionRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*payment.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, payment.StatusPending, olderThan, limit)
	if err != nil {
		r.logger.Error("Failed to list stale transactions", "error", err)
		return nil, fmt.Errorf("failed to list stale transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*payment.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return transactions, nil
}

func scanTransaction(row pgx.Row) (*payment.Transaction, error) {
	var (
		t      payment.Transaction
		amount string
	)
	err := row.Scan(
		&t.ID,
		&t.TransactionRequestID,
		&t.Reference,
		&t.Phone,
		&amount,
		&t.Status,
		&t.ReceiptNumber,
		&t.ResultDescription,
		&t.ResultCode,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return &t, nil
}
