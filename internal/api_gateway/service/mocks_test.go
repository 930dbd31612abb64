package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/platform/swiftpay"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, t *payment.Transaction) (payment.PersistOutcome, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(payment.PersistOutcome), args.Error(1)
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, ref string) (*payment.Transaction, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, at time.Time, event *outbox.Message) (bool, error) {
	args := m.Called(ctx, id, at, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*payment.Transaction, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Transaction), args.Error(1)
}

type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, rec *application.Record) (uuid.UUID, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockApplicationRepository) MarkPaid(ctx context.Context, refs ...string) (int64, error) {
	args := m.Called(ctx, refs)
	return args.Get(0).(int64), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req swiftpay.ChargeRequest) (*swiftpay.ChargeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*swiftpay.ChargeResult), args.Error(1)
}

type MockProxy struct {
	mock.Mock
}

func (m *MockProxy) Query(ctx context.Context, checkoutID string) (payment.CanonicalStatus, bool, error) {
	args := m.Called(ctx, checkoutID)
	return args.Get(0).(payment.CanonicalStatus), args.Bool(1), args.Error(2)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRecorder) FindByReference(ctx context.Context, reference string) ([]*audit.Entry, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}
