package handler

import (
	"context"
	"log/slog"
	"os"

	"github.com/qatarjobs-payments/internal/api_gateway/service"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Ready() error {
	return m.Called().Error(0)
}

func (m *MockPaymentService) Initiate(ctx context.Context, req *service.InitiateRequest) (*service.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitiateResult), args.Error(1)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Resolve(ctx context.Context, reference string) (*payment.StatusView, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusView), args.Error(1)
}

func (m *MockStatusService) Reconcile(ctx context.Context, t *payment.Transaction) (payment.CanonicalStatus, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(payment.CanonicalStatus), args.Error(1)
}

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) Ready() error {
	return m.Called().Error(0)
}

func (m *MockApplicationService) Submit(ctx context.Context, req *service.SubmitRequest) (*service.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}
