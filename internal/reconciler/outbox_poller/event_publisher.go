package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qatarjobs-payments/internal/domain/outbox"
	"github.com/qatarjobs-payments/internal/domain/shared"
	"github.com/qatarjobs-payments/internal/platform/messaging/producers"
)

// EventPublisher hands a stored payment event to the broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// BrokerEventPublisher publishes outbox rows to Kafka and marks them processed
type BrokerEventPublisher struct {
	outboxRepo outbox.Repository
	publisher  producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &BrokerEventPublisher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// PublishEvent sends the whole message keyed by its transaction id, so every event of one
// transaction lands on the same partition.
func (p *BrokerEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "event_id", message.EventID.String(), "event_type", message.EventType)

	if message.EventType != shared.EventTypePaymentSucceeded {
		logger.Error("Unknown event type in outbox, marking as FAILED_TO_PUBLISH")
		if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); err != nil {
			logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH", "update_error", err)
		}
		return fmt.Errorf("unknown event type %q for outbox %d", message.EventType, message.ID)
	}

	if err := p.publisher.Publish(ctx, message.AggregateID.String(), message); err != nil {
		return fmt.Errorf("publish outbox %d failed: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Event published but failed to mark outbox message as PROCESSED", "error", err)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.AggregateID, message.ID, err)
	}

	logger.Debug("Outbox message published and marked as PROCESSED", "aggregate_id", message.AggregateID.String())
	return nil
}
