// Package indexing writes finished exchanges into the vector memory index
// off the request path. Jobs travel over a watermill channel; failures are
// logged and dropped.
package indexing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/pkg/embedding"
	"ai-memchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const module = "MemoryIndexer"

// Job describes one exchange to index. UserEmbedding is reused from
// context assembly; the model reply is embedded here.
type Job struct {
	UserId         uuid.UUID `json:"user_id"`
	ChatId         uuid.UUID `json:"chat_id"`
	UserMessageId  uuid.UUID `json:"user_message_id"`
	UserText       string    `json:"user_text"`
	UserEmbedding  []float32 `json:"user_embedding"`
	ModelMessageId uuid.UUID `json:"model_message_id"`
	ModelText      string    `json:"model_text"`
}

type Indexer struct {
	pubSub    *gochannel.GoChannel
	memories  contract.MemoryRecordRepository
	embedder  embedding.EmbeddingProvider
	publisher events.Publisher
	logger    logger.ILogger
	inflight  sync.WaitGroup
}

// NewIndexer wires the indexer. publisher may be nil.
func NewIndexer(
	pubSub *gochannel.GoChannel,
	memories contract.MemoryRecordRepository,
	embedder embedding.EmbeddingProvider,
	publisher events.Publisher,
	log logger.ILogger,
) *Indexer {
	return &Indexer{
		pubSub:    pubSub,
		memories:  memories,
		embedder:  embedder,
		publisher: publisher,
		logger:    log,
	}
}

// NewPubSub returns the in-process channel used between committer and indexer.
// Publish returns once the consumer has taken the job, so a job is counted by
// Wait from the moment Enqueue returns.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)
}

// Enqueue publishes job without waiting for it to be processed.
func (i *Indexer) Enqueue(job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal indexing job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := i.pubSub.Publish(constant.IndexingTopic, msg); err != nil {
		return fmt.Errorf("publish indexing job: %w", err)
	}
	return nil
}

// Consume subscribes to the indexing topic and returns once subscribed.
// Every job runs in its own goroutine, so there is no bound on how many
// are outstanding.
func (i *Indexer) Consume(ctx context.Context) error {
	messages, err := i.pubSub.Subscribe(ctx, constant.IndexingTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var job Job
			if err := json.Unmarshal(msg.Payload, &job); err != nil {
				msg.Ack()
				i.logger.Error(module, "Failed to unmarshal indexing job", map[string]interface{}{"error": err.Error()})
				continue
			}

			// Counted before Ack releases the publisher.
			i.inflight.Add(1)
			msg.Ack()
			go func() {
				defer i.inflight.Done()
				i.Process(context.WithoutCancel(ctx), job)
			}()
		}
	}()

	return nil
}

// Wait blocks until all started jobs have finished.
func (i *Indexer) Wait() {
	i.inflight.Wait()
}

// Process indexes both halves of the exchange independently.
func (i *Indexer) Process(ctx context.Context, job Job) {
	details := map[string]interface{}{
		"user_id": job.UserId.String(),
		"chat_id": job.ChatId.String(),
	}

	userErr := i.memories.Create(ctx, &entity.MemoryRecord{
		ChatMessageId:  job.UserMessageId,
		ChatId:         job.ChatId,
		UserId:         job.UserId,
		Text:           job.UserText,
		EmbeddingValue: job.UserEmbedding,
	})
	if userErr != nil {
		i.logFailure("Failed to index user message", job.UserMessageId, userErr, details)
	}

	modelErr := i.indexReply(ctx, job)
	if modelErr != nil {
		i.logFailure("Failed to index model reply", job.ModelMessageId, modelErr, details)
	}

	if userErr != nil || modelErr != nil {
		return
	}

	i.logger.Debug(module, "Exchange indexed", details)

	if i.publisher == nil {
		return
	}
	evt := events.NewExchangeCompleted(job.UserId, job.ChatId, job.UserMessageId, job.ModelMessageId)
	if err := i.publisher.Publish(ctx, evt); err != nil {
		i.logger.Warn(module, "Failed to publish exchange event", map[string]interface{}{
			"chat_id": job.ChatId.String(),
			"error":   err.Error(),
		})
	}
}

func (i *Indexer) indexReply(ctx context.Context, job Job) error {
	vector, err := i.embedder.Generate(ctx, job.ModelText, constant.EmbeddingTaskSimilarity)
	if err != nil {
		return fmt.Errorf("embed reply: %w", err)
	}
	return i.memories.Create(ctx, &entity.MemoryRecord{
		ChatMessageId:  job.ModelMessageId,
		ChatId:         job.ChatId,
		UserId:         job.UserId,
		Text:           job.ModelText,
		EmbeddingValue: vector,
	})
}

func (i *Indexer) logFailure(msg string, messageID uuid.UUID, err error, details map[string]interface{}) {
	fields := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		fields[k] = v
	}
	fields["chat_message_id"] = messageID.String()
	fields["error"] = err.Error()
	i.logger.Error(module, msg, fields)
}
