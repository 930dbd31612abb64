package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/qatarjobs-payments/internal/config"
	"github.com/qatarjobs-payments/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

const fetchRetryDelay = time.Second

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MessageReader wraps kafka.Reader methods for testing
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka. When a DLQ is attached, messages the
// handler rejects are parked there and committed; otherwise they are left uncommitted.
type KafkaConsumer struct {
	reader  MessageReader
	dlq     producers.DeadLetterPublisher
	topic   string
	groupID string
	logger  *slog.Logger
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, dlq producers.DeadLetterPublisher) *KafkaConsumer {
	return &KafkaConsumer{
		logger:  logger,
		dlq:     dlq,
		topic:   cfg.PaymentEventsTopic,
		groupID: cfg.ConsumerGroup,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.PaymentEventsTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts consuming in the background until ctx is cancelled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic", "topic", c.topic, "group_id", c.groupID)

	go c.run(ctx, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.handle(ctx, msg, handler) {
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// handle reports whether the message offset may be committed.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	processingErr := handler(ctx, msg.Key, msg.Value)
	if processingErr == nil {
		return true
	}

	c.logger.Error("Failed to process message",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"error", processingErr,
	)

	if c.dlq == nil {
		return false
	}
	if err := c.dlq.PublishToDLQ(ctx, string(msg.Key), msg.Value, processingErr.Error()); err != nil {
		c.logger.Error("Failed to park message in DLQ, leaving it uncommitted", "key", string(msg.Key), "error", err)
		return false
	}
	return true
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
