package checkout

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/stretchr/testify/mock"
)

type MockPaymentAPI struct {
	mock.Mock
}

func (m *MockPaymentAPI) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InitiateResponse), args.Error(1)
}

func (m *MockPaymentAPI) PaymentStatus(ctx context.Context, reference string) (payment.CanonicalStatus, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(payment.CanonicalStatus), args.Error(1)
}

func (m *MockPaymentAPI) SubmitApplication(ctx context.Context, req ApplicationRequest) (*ApplicationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApplicationResponse), args.Error(1)
}

// scriptedStatus answers polls from a fixed script, repeating the last entry.
type scriptedStatus struct {
	mu     sync.Mutex
	script []statusAnswer
	calls  int
}

type statusAnswer struct {
	status payment.CanonicalStatus
	err    error
}

func (s *scriptedStatus) PaymentStatus(ctx context.Context, reference string) (payment.CanonicalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i].status, s.script[i].err
}

func (s *scriptedStatus) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
