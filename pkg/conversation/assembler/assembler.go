// Package assembler builds the ordered model context for one inbound message:
// an optional long-term memory entry followed by the chronological short-term
// transcript, ending with the current user turn.
package assembler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/pkg/embedding"
	"ai-memchat-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Result carries what the later stages need: the context for generation and
// the persisted user message with its embedding for background indexing.
type Result struct {
	Context       []llm.Message
	UserMessage   *entity.ChatMessage
	UserEmbedding []float32
	Memories      []*entity.MemoryRecord
}

type Assembler struct {
	messages       contract.ChatMessageRepository
	memories       contract.MemoryRecordRepository
	embedder       embedding.EmbeddingProvider
	shortTermLimit int
	longTermLimit  int
}

type Option func(*Assembler)

func WithShortTermLimit(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.shortTermLimit = n
		}
	}
}

func WithLongTermLimit(k int) Option {
	return func(a *Assembler) {
		if k > 0 {
			a.longTermLimit = k
		}
	}
}

func New(
	messages contract.ChatMessageRepository,
	memories contract.MemoryRecordRepository,
	embedder embedding.EmbeddingProvider,
	opts ...Option,
) *Assembler {
	a := &Assembler{
		messages:       messages,
		memories:       memories,
		embedder:       embedder,
		shortTermLimit: constant.DefaultShortTermLimit,
		longTermLimit:  constant.DefaultLongTermLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble persists the user message, embeds it and reads the recent
// transcript concurrently. The memory query waits only on the embedding.
func (a *Assembler) Assemble(ctx context.Context, userID, chatID uuid.UUID, content string) (*Result, error) {
	ctx, span := otel.Tracer("conversation").Start(ctx, "Assembler.Assemble")
	defer span.End()
	span.SetAttributes(attribute.String("chat_id", chatID.String()))

	userMsg := &entity.ChatMessage{
		ChatId:    chatID,
		UserId:    userID,
		Role:      constant.ChatMessageRoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}

	var (
		vector   []float32
		recent   []*entity.ChatMessage
		memories []*entity.MemoryRecord
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.messages.Create(gctx, userMsg); err != nil {
			return fmt.Errorf("persist user message: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		v, err := a.embedder.Generate(gctx, content, constant.EmbeddingTaskSimilarity)
		if err != nil {
			return fmt.Errorf("embed user message: %w", err)
		}
		vector = v

		records, err := a.memories.SearchSimilar(gctx, v, a.longTermLimit, entity.MemoryFilter{OwnerId: userID})
		if err != nil {
			return fmt.Errorf("query long-term memory: %w", err)
		}
		memories = records
		return nil
	})

	g.Go(func() error {
		msgs, err := a.messages.FindRecent(gctx, chatID, a.shortTermLimit)
		if err != nil {
			return fmt.Errorf("fetch recent messages: %w", err)
		}
		recent = msgs
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	history := chronological(recent, userMsg.Id)
	// Leave room for the current turn.
	if window := a.shortTermLimit - 1; len(history) > window {
		history = history[len(history)-window:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	if entry, ok := LongTermEntry(memories); ok {
		messages = append(messages, entry)
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: content})

	span.SetAttributes(
		attribute.Int("short_term.count", len(history)+1),
		attribute.Int("long_term.count", len(memories)),
	)

	return &Result{
		Context:       messages,
		UserMessage:   userMsg,
		UserEmbedding: vector,
		Memories:      memories,
	}, nil
}

// chronological reverses a newest-first window and drops the message with
// id current, which may or may not have been committed when the read ran.
func chronological(newestFirst []*entity.ChatMessage, current uuid.UUID) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, 0, len(newestFirst))
	for _, m := range newestFirst {
		if m.Id == current {
			continue
		}
		out = append(out, m)
	}
	slices.Reverse(out)
	return out
}

// LongTermEntry merges recalled records into one neutral-role message.
// It reports false when there is nothing to recall.
func LongTermEntry(records []*entity.MemoryRecord) (llm.Message, bool) {
	if len(records) == 0 {
		return llm.Message{}, false
	}

	texts := make([]string, 0, len(records))
	for _, r := range records {
		texts = append(texts, r.Text)
	}

	return llm.Message{
		Role:    constant.ChatMessageRoleMemory,
		Content: constant.LongTermMemoryPreamble + "\n\n" + strings.Join(texts, "\n"),
	}, true
}
