package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/qatarjobs-payments/internal/domain/shared"
)

// Message stores a payment event for reliable publishing
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	EventType     shared.EventType    `json:"event_type"`
	AggregateID   uuid.UUID           `json:"aggregate_id"` // transaction id
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(eventType shared.EventType, aggregateID uuid.UUID, payload any) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:     uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Decode unmarshals the payload into v
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}
