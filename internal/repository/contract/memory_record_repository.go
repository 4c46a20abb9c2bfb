package contract

import (
	"context"

	"ai-memchat-be/internal/entity"
)

// MemoryRecordRepository is the vector memory index. Implementations must
// never return a record whose UserId differs from filter.OwnerId.
type MemoryRecordRepository interface {
	Create(ctx context.Context, record *entity.MemoryRecord) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int, filter entity.MemoryFilter) ([]*entity.MemoryRecord, error)
}
