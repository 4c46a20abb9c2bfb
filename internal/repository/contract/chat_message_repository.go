package contract

import (
	"context"

	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatMessageRepository is the append-only transcript store.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	// FindRecent returns at most limit messages of the chat, newest first.
	FindRecent(ctx context.Context, chatId uuid.UUID, limit int) ([]*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
