package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/qatarjobs-payments/internal/domain/application"
	"github.com/qatarjobs-payments/internal/domain/audit"
	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/payment"
	"github.com/qatarjobs-payments/internal/domain/shared"
)

// PaymentEventHandler settles applications when their payment is confirmed.
// Returned errors are parked in the dead-letter topic by the consumer.
type PaymentEventHandler struct {
	applications application.Repository
	recorder     audit.Recorder
	logger       *slog.Logger
}

func NewPaymentEventHandler(
	logger *slog.Logger,
	applications application.Repository,
	recorder audit.Recorder,
) *PaymentEventHandler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &PaymentEventHandler{
		applications: applications,
		recorder:     recorder,
		logger:       logger,
	}
}

// HandleMessage processes one payment event read from Kafka
func (h *PaymentEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var message outbox.Message
	if err := json.Unmarshal(value, &message); err != nil {
		h.logger.Error("Failed to unmarshal payment event from Kafka message", "message_key", string(key), "error", err)
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger.With("event_id", message.EventID.String(), "event_type", message.EventType)

	if message.EventType != shared.EventTypePaymentSucceeded {
		logger.Warn("Ignoring payment event of unhandled type")
		return nil
	}

	var event payment.SucceededEvent
	if err := message.Decode(&event); err != nil {
		logger.Error("Failed to decode payment.succeeded payload", "error", err)
		return fmt.Errorf("failed to decode payload of event %s: %w", message.EventID, err)
	}

	refs := event.References()
	if len(refs) == 0 {
		return fmt.Errorf("event %s carries no payment reference", message.EventID)
	}

	logger = logger.With("reference", event.Reference, "transaction_request_id", event.TransactionRequestID)

	paid, err := h.applications.MarkPaid(ctx, refs...)
	if err != nil {
		logger.Error("Failed to mark applications paid", "error", err)
		return fmt.Errorf("marking applications paid for event %s failed: %w", message.EventID, err)
	}

	entry := audit.NewEntry(audit.KindApplicationsPaid, event.Reference, event.TransactionRequestID, map[string]any{
		"event_id":          message.EventID.String(),
		"transaction_id":    event.TransactionID.String(),
		"applications_paid": paid,
	})
	if err := h.recorder.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record audit entry", "error", err)
	}

	logger.Info("Applications settled for confirmed payment", "applications_paid", paid)
	return nil
}
