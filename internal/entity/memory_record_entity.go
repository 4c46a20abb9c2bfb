package entity

import (
	"time"

	"github.com/google/uuid"
)

// MemoryRecord is the derived, best-effort vector index entry for a ChatMessage.
// ChatId, UserId and Text are denormalized from the referenced message.
type MemoryRecord struct {
	Id             uuid.UUID
	ChatMessageId  uuid.UUID
	ChatId         uuid.UUID
	UserId         uuid.UUID
	Text           string
	EmbeddingValue []float32
	Similarity     float64
	CreatedAt      time.Time
}

// MemoryFilter scopes a similarity query. OwnerId is mandatory.
type MemoryFilter struct {
	OwnerId uuid.UUID
	ChatId  *uuid.UUID
}
