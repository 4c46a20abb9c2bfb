package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// TypeExchangeCompleted is published once both halves of an exchange are indexed.
	TypeExchangeCompleted = "exchange_completed"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "exchange_completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to a bus. pkg/nats provides the JetStream implementation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewExchangeCompleted(userID, chatID, userMessageID, modelMessageID uuid.UUID) BaseEvent {
	now := time.Now()
	return BaseEvent{
		Type: TypeExchangeCompleted,
		Data: map[string]interface{}{
			"user_id":          userID.String(),
			"chat_id":          chatID.String(),
			"user_message_id":  userMessageID.String(),
			"model_message_id": modelMessageID.String(),
			"occurred_at":      now.Format(time.RFC3339Nano),
		},
		OccurredAt: now,
	}
}
