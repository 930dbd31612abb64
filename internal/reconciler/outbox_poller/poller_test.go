package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPoller_ProcessPendingMessages(t *testing.T) {
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	var (
		mockOutboxRepo     *MockOutboxRepo
		mockEventPublisher *MockEventPublisher
	)

	tests := []struct {
		name          string
		setupMocks    func(t *testing.T)
		expectedError string
	}{
		{
			name: "successful processing of pending messages",
			setupMocks: func(t *testing.T) {
				m1, m2 := newSucceededMessage(t, 1), newSucceededMessage(t, 2)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{m1, m2}, nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m1).Return(nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m2).Return(nil).Once()
			},
		},
		{
			name: "error getting pending messages",
			setupMocks: func(t *testing.T) {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func(t *testing.T) {
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "error publishing one message",
			setupMocks: func(t *testing.T) {
				m1, m2 := newSucceededMessage(t, 1), newSucceededMessage(t, 2)
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{m1, m2}, nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m1).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m2).Return(nil).Once()
			},
		},
		{
			name: "max retry attempts reached",
			setupMocks: func(t *testing.T) {
				m := newSucceededMessage(t, 3)
				m.Attempts = 2
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{m}, nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				mockOutboxRepo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
		},
		{
			name: "increment failure skips the give-up check",
			setupMocks: func(t *testing.T) {
				m := newSucceededMessage(t, 4)
				m.Attempts = 5
				mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{m}, nil).Once()
				mockEventPublisher.On("PublishEvent", mock.Anything, m).Return(errors.New("publish error")).Once()
				mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(4)).Return(errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOutboxRepo = &MockOutboxRepo{}
			mockEventPublisher = &MockEventPublisher{}
			poller := NewPoller(cfg, mockOutboxRepo, mockEventPublisher, newTestLogger())

			tt.setupMocks(t)

			err := poller.processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockOutboxRepo.AssertExpectations(t)
			mockEventPublisher.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	mockOutboxRepo := &MockOutboxRepo{}
	mockEventPublisher := &MockEventPublisher{}

	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	poller := NewPoller(cfg, mockOutboxRepo, mockEventPublisher, newTestLogger())

	mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
	mockOutboxRepo.AssertCalled(t, "GetPending", mock.Anything, 10)
}
