package service

import (
	"context"
	"errors"
	"fmt"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/dto"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/pkg/serverutils"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/internal/repository/specification"
	"ai-memchat-be/pkg/chatlock"
	"ai-memchat-be/pkg/conversation/assembler"
	"ai-memchat-be/pkg/conversation/generation"
	"ai-memchat-be/pkg/conversation/persistence"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrProcessing wraps every foreground failure of a single message.
var ErrProcessing = errors.New("message processing failed")

// Emitter delivers an outbound event to the client of one connection.
type Emitter interface {
	Emit(event string, payload interface{}) error
}

type IChatService interface {
	HandleMessage(ctx context.Context, userID uuid.UUID, req dto.SubmitMessageRequest, emitter Emitter) error
	GetChatMessages(ctx context.Context, userID, chatID uuid.UUID, page, limit int) (*dto.GetChatMessagesResponse, error)
}

type chatService struct {
	messages  contract.ChatMessageRepository
	assembler *assembler.Assembler
	invoker   *generation.Invoker
	committer *persistence.Committer
	locker    chatlock.Locker
	logger    logger.ILogger
}

func NewChatService(
	messages contract.ChatMessageRepository,
	asm *assembler.Assembler,
	invoker *generation.Invoker,
	committer *persistence.Committer,
	locker chatlock.Locker,
	log logger.ILogger,
) IChatService {
	return &chatService{
		messages:  messages,
		assembler: asm,
		invoker:   invoker,
		committer: committer,
		locker:    locker,
		logger:    log,
	}
}

func processingError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProcessing, step, err)
}

// HandleMessage runs assemble, generate, commit, emit and then hands the
// exchange to background indexing. Any returned error wraps ErrProcessing.
func (s *chatService) HandleMessage(ctx context.Context, userID uuid.UUID, req dto.SubmitMessageRequest, emitter Emitter) error {
	if err := serverutils.ValidateStruct(req); err != nil {
		return processingError("validate", err)
	}
	chatID, err := uuid.Parse(req.Chat)
	if err != nil {
		return processingError("parse chat id", err)
	}

	ctx, span := otel.Tracer("conversation").Start(ctx, "ChatService.HandleMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("chat_id", chatID.String()),
	)

	unlock, err := s.locker.Lock(ctx, chatID)
	if err != nil {
		return processingError("lock chat", err)
	}
	defer unlock()

	assembled, err := s.assembler.Assemble(ctx, userID, chatID, req.Content)
	if err != nil {
		return processingError("assemble context", err)
	}

	completion, err := s.invoker.Invoke(ctx, assembled.Context)
	if err != nil {
		return processingError("generate", err)
	}

	reply, err := s.committer.CommitReply(ctx, userID, chatID, completion)
	if err != nil {
		return processingError("commit reply", err)
	}

	if err := emitter.Emit(constant.EventAIResponse, dto.AIResponse{Content: completion, Chat: req.Chat}); err != nil {
		// The connection is gone; the exchange is still durable.
		s.logger.Debug("ChatService", "Reply not delivered", map[string]interface{}{
			"user_id": userID.String(),
			"chat_id": chatID.String(),
			"error":   err.Error(),
		})
	}

	s.committer.IndexExchange(assembled.UserMessage, assembled.UserEmbedding, reply)

	s.logger.Info("ChatService", "Exchange completed", map[string]interface{}{
		"user_id":          userID.String(),
		"chat_id":          chatID.String(),
		"long_term_hits":   len(assembled.Memories),
		"context_messages": len(assembled.Context),
	})
	return nil
}

// GetChatMessages pages through the caller's messages in a chat, oldest first.
func (s *chatService) GetChatMessages(ctx context.Context, userID, chatID uuid.UUID, page, limit int) (*dto.GetChatMessagesResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	filters := []specification.Specification{
		specification.ByChatID{ChatID: chatID},
		specification.UserOwnedBy{UserID: userID},
	}

	total, err := s.messages.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	messages, err := s.messages.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		data = append(data, dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	return &dto.GetChatMessagesResponse{
		Data:  data,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
