package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := &OutboxRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	outboxRepo, ok := txRepo.(*OutboxRepository)
	require.True(t, ok)
	assert.Equal(t, mockTx, outboxRepo.querier)
	assert.Equal(t, repo.logger, outboxRepo.logger)
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `INSERT INTO payment_events \(event_id, event_type, aggregate_id, payload, status, attempts, created_at\)`

	msg, err := outbox.NewMessage(shared.EventTypePaymentSucceeded, uuid.New(), map[string]string{"reference": "QATAR-1"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(msg.EventID, msg.EventType, msg.AggregateID, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(ctx, msg)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(query).WillReturnError(dbErr)

		err := repo.Create(ctx, msg)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create payment event")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `FROM payment_events\s+WHERE status = \$1\s+ORDER BY created_at ASC\s+LIMIT \$2`
	columns := []string{"id", "event_id", "event_type", "aggregate_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

	t.Run("success", func(t *testing.T) {
		lastAttempt := time.Now().Add(-time.Minute)
		rows := pgxmock.NewRows(columns).
			AddRow(int64(1), uuid.New(), shared.EventTypePaymentSucceeded, uuid.New(), []byte(`{"reference":"QATAR-1"}`), shared.OutboxStatusPending, 0, time.Now(), (*time.Time)(nil)).
			AddRow(int64(2), uuid.New(), shared.EventTypePaymentSucceeded, uuid.New(), []byte(`{"reference":"QATAR-2"}`), shared.OutboxStatusPending, 2, time.Now(), &lastAttempt)
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Nil(t, messages[0].LastAttemptAt)
		assert.Equal(t, 2, messages[1].Attempts)
		require.NotNil(t, messages[1].LastAttemptAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(query).WithArgs(shared.OutboxStatusPending, 10).WillReturnError(dbErr)

		messages, err := repo.GetPending(ctx, 10)
		assert.Nil(t, messages)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `UPDATE payment_events\s+SET status = \$1, last_attempt_at = \$2\s+WHERE id = \$3`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateStatus(ctx, 1, shared.OutboxStatusProcessed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(9)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 9, shared.OutboxStatusProcessed)
		var notFound outbox.ErrMessageNotFound
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, int64(9), notFound.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: newTestLogger()}
	query := `UPDATE payment_events\s+SET attempts = attempts \+ 1, last_attempt_at = \$1\s+WHERE id = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.IncrementAttempts(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), int64(3)).WillReturnError(dbErr)

		err := repo.IncrementAttempts(ctx, 3)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
