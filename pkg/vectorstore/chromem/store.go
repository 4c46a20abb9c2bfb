package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/contract"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

const (
	metaOwnerID       = "owner_id"
	metaChatID        = "chat_id"
	metaChatMessageID = "chat_message_id"
	metaCreatedAt     = "created_at"
)

// Store is an embedded vector index backed by chromem-go. Every owner gets a
// separate collection, and queries also filter on owner_id metadata.
type Store struct {
	db          *chromem.DB
	collections map[uuid.UUID]*chromem.Collection
	mu          sync.RWMutex
}

var _ contract.MemoryRecordRepository = (*Store)(nil)

// New creates an in-memory store.
func New() *Store {
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[uuid.UUID]*chromem.Collection),
	}
}

// NewPersistent creates a store that persists collections under path.
func NewPersistent(path string) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return &Store{
		db:          db,
		collections: make(map[uuid.UUID]*chromem.Collection),
	}, nil
}

func (s *Store) collection(ownerID uuid.UUID) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[ownerID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, exists := s.collections[ownerID]; exists {
		return col, nil
	}

	// nil embedding func: vectors are always supplied by the caller
	col, err := s.db.GetOrCreateCollection("memory_"+ownerID.String(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[ownerID] = col
	return col, nil
}

func (s *Store) Create(ctx context.Context, record *entity.MemoryRecord) error {
	if record.UserId == uuid.Nil {
		return fmt.Errorf("memory record has no owner")
	}
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	col, err := s.collection(record.UserId)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        record.Id.String(),
		Content:   record.Text,
		Embedding: record.EmbeddingValue,
		Metadata: map[string]string{
			metaOwnerID:       record.UserId.String(),
			metaChatID:        record.ChatId.String(),
			metaChatMessageID: record.ChatMessageId.String(),
			metaCreatedAt:     record.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, limit int, filter entity.MemoryFilter) ([]*entity.MemoryRecord, error) {
	if filter.OwnerId == uuid.Nil {
		return nil, fmt.Errorf("memory search requires an owner")
	}
	if limit <= 0 {
		limit = constant.DefaultLongTermLimit
	}

	col, err := s.collection(filter.OwnerId)
	if err != nil {
		return nil, err
	}

	where := map[string]string{metaOwnerID: filter.OwnerId.String()}
	if filter.ChatId != nil {
		where[metaChatID] = filter.ChatId.String()
	}

	// chromem-go requires nResults <= number of matching documents
	n := min(limit, col.Count())
	var results []chromem.Result
	for ; n >= 1; n-- {
		results, err = col.QueryEmbedding(ctx, embedding, n, where, nil)
		if err == nil {
			break
		}
		if !isInsufficientDocsError(err) {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
	}
	if n < 1 {
		return []*entity.MemoryRecord{}, nil
	}

	records := make([]*entity.MemoryRecord, 0, len(results))
	for _, res := range results {
		record, err := toRecord(res)
		if err != nil || record.UserId != filter.OwnerId {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func toRecord(res chromem.Result) (*entity.MemoryRecord, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(res.Metadata[metaOwnerID])
	if err != nil {
		return nil, err
	}
	chatID, _ := uuid.Parse(res.Metadata[metaChatID])
	messageID, _ := uuid.Parse(res.Metadata[metaChatMessageID])
	createdAt, _ := time.Parse(time.RFC3339Nano, res.Metadata[metaCreatedAt])

	return &entity.MemoryRecord{
		Id:             id,
		ChatMessageId:  messageID,
		ChatId:         chatID,
		UserId:         ownerID,
		Text:           res.Content,
		EmbeddingValue: res.Embedding,
		Similarity:     float64(res.Similarity),
		CreatedAt:      createdAt,
	}, nil
}

func isInsufficientDocsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
