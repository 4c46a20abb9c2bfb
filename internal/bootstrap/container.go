package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-memchat-be/internal/config"
	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/handler"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/pkg/serverutils"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/internal/repository/implementation"
	"ai-memchat-be/internal/repository/memory"
	"ai-memchat-be/internal/service"
	"ai-memchat-be/internal/websocket"
	"ai-memchat-be/pkg/chatlock"
	"ai-memchat-be/pkg/conversation/assembler"
	"ai-memchat-be/pkg/conversation/generation"
	"ai-memchat-be/pkg/conversation/indexing"
	"ai-memchat-be/pkg/conversation/persistence"
	embeddingFactory "ai-memchat-be/pkg/embedding/factory"
	"ai-memchat-be/pkg/events"
	"ai-memchat-be/pkg/llm"
	llmFactory "ai-memchat-be/pkg/llm/factory"
	pktNats "ai-memchat-be/pkg/nats"
	"ai-memchat-be/pkg/vectorstore/chromem"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatSocketHandler *handler.ChatSocketHandler
	WebSocketHub      *websocket.Hub
	Indexer           *indexing.Indexer
	Logger            logger.ILogger

	closers []func()
}

// NewContainer builds every collaborator once and injects it. The indexer
// is subscribed before the container is returned.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Loggers
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() }, func() { _ = wsLogger.Sync() })

	// 2. Model clients
	llmProvider, err := llmFactory.NewLLMProvider(ctx, llmFactory.Settings{
		Provider:        cfg.Ai.LLMProvider,
		Model:           cfg.Ai.LLMModel,
		OllamaBaseURL:   cfg.Ai.OllamaBaseURL,
		GeminiAPIKey:    cfg.Ai.GoogleGeminiAPIKey,
		AnthropicAPIKey: cfg.Ai.AnthropicAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(ctx, embeddingFactory.Settings{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		Dimensions:    cfg.Ai.EmbeddingDimensions,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		GeminiAPIKey:  cfg.Ai.GoogleGeminiAPIKey,
		JinaAPIKey:    cfg.Ai.JinaAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	// 3. Stores
	messageRepo := implementation.NewChatMessageRepository(db)
	userRepo := implementation.NewUserRepository(db)

	var memoryIndex contract.MemoryRecordRepository
	switch cfg.Memory.VectorStore {
	case "chromem":
		if cfg.Memory.ChromemPath != "" {
			store, err := chromem.NewPersistent(cfg.Memory.ChromemPath)
			if err != nil {
				return nil, fmt.Errorf("chromem store: %w", err)
			}
			memoryIndex = store
		} else {
			memoryIndex = chromem.New()
		}
	case "pgvector", "":
		memoryIndex = implementation.NewMemoryRecordRepository(db)
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.Memory.VectorStore)
	}
	log.Printf("[INFO] Using Vector Store: %s", cfg.Memory.VectorStore)

	// 4. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	locker, err := chatlock.New(cfg.Memory.ChatLock, rdb, constant.ChatLockTTL)
	if err != nil {
		return nil, err
	}

	// A nil *Publisher must not become a non-nil interface.
	var publisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 5. Pipeline
	indexer := indexing.NewIndexer(indexing.NewPubSub(), memoryIndex, embeddingProvider, publisher, sysLogger)
	if err := indexer.Consume(ctx); err != nil {
		return nil, fmt.Errorf("indexer subscribe: %w", err)
	}
	c.Indexer = indexer

	asm := assembler.New(messageRepo, memoryIndex, embeddingProvider,
		assembler.WithShortTermLimit(cfg.Memory.ShortTermLimit),
		assembler.WithLongTermLimit(cfg.Memory.LongTermLimit),
	)
	invoker := generation.NewInvoker(llmProvider, cfg.Ai.LLMTimeout,
		llm.WithTemperature(cfg.Ai.LLMTemperature),
		llm.WithMaxTokens(cfg.Ai.LLMMaxTokens),
	)
	committer := persistence.NewCommitter(messageRepo, indexer, sysLogger)

	chatService := service.NewChatService(messageRepo, asm, invoker, committer, locker, sysLogger)

	// 6. Socket layer
	c.WebSocketHub = websocket.NewHub(wsLogger)
	c.ChatSocketHandler = handler.NewChatSocketHandler(
		chatService,
		serverutils.NewTokenVerifier(cfg.Auth.JWTSecret),
		memory.NewSessionStore(userRepo, cfg.Auth.IdentityCacheTTL),
		c.WebSocketHub,
		cfg.Auth.CookieName,
		wsLogger,
	)

	return c, nil
}

// Shutdown closes sessions, drains started handlers and background
// indexing, then releases infrastructure.
func (c *Container) Shutdown(ctx context.Context) error {
	err := c.WebSocketHub.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		c.Indexer.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.Logger.Warn("Container", "Indexing still running at shutdown", nil)
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	return err
}
