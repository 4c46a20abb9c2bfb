package persistence

import (
	"context"
	"fmt"
	"time"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/pkg/conversation/indexing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

// JobDispatcher hands an exchange to background indexing without waiting.
type JobDispatcher interface {
	Enqueue(job indexing.Job) error
}

type Committer struct {
	messages   contract.ChatMessageRepository
	dispatcher JobDispatcher
	logger     logger.ILogger
}

func NewCommitter(messages contract.ChatMessageRepository, dispatcher JobDispatcher, log logger.ILogger) *Committer {
	return &Committer{
		messages:   messages,
		dispatcher: dispatcher,
		logger:     log,
	}
}

// CommitReply durably stores the model reply. It must succeed before the
// client is told about the reply.
func (c *Committer) CommitReply(ctx context.Context, userID, chatID uuid.UUID, text string) (*entity.ChatMessage, error) {
	ctx, span := otel.Tracer("conversation").Start(ctx, "Committer.CommitReply")
	defer span.End()

	reply := &entity.ChatMessage{
		ChatId:    chatID,
		UserId:    userID,
		Role:      constant.ChatMessageRoleModel,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := c.messages.Create(ctx, reply); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persist model reply: %w", err)
	}
	return reply, nil
}

// IndexExchange schedules background indexing of both messages. It never
// fails the caller; a dispatch error is only logged.
func (c *Committer) IndexExchange(userMsg *entity.ChatMessage, userVec []float32, reply *entity.ChatMessage) {
	job := indexing.Job{
		UserId:         userMsg.UserId,
		ChatId:         userMsg.ChatId,
		UserMessageId:  userMsg.Id,
		UserText:       userMsg.Content,
		UserEmbedding:  userVec,
		ModelMessageId: reply.Id,
		ModelText:      reply.Content,
	}
	if err := c.dispatcher.Enqueue(job); err != nil {
		c.logger.Error("MemoryIndexer", "Failed to dispatch indexing job", map[string]interface{}{
			"chat_id": userMsg.ChatId.String(),
			"error":   err.Error(),
		})
	}
}
