package implementation

import (
	"context"
	"errors"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/mapper"
	"ai-memchat-be/internal/model"
	"ai-memchat-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MemoryRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryRecordMapper
}

func NewMemoryRecordRepository(db *gorm.DB) contract.MemoryRecordRepository {
	return &MemoryRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryRecordMapper(),
	}
}

func (r *MemoryRecordRepositoryImpl) Create(ctx context.Context, record *entity.MemoryRecord) error {
	m := r.mapper.ToModel(record)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		// A message is indexed at most once; a repeated index is a no-op.
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *MemoryRecordRepositoryImpl) searchQuery(ctx context.Context, embedding []float32, limit int, filter entity.MemoryFilter) *gorm.DB {
	queryVector := pgvector.NewVector(embedding)

	// Cosine distance: 1 - (a <=> b) is the cosine similarity
	query := r.db.WithContext(ctx).
		Table("memory_records").
		Select("memory_records.*, 1 - (embedding_value <=> ?) AS similarity", queryVector).
		Where("user_id = ?", filter.OwnerId)

	if filter.ChatId != nil {
		query = query.Where("chat_id = ?", *filter.ChatId)
	}

	return query.
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit)
}

func (r *MemoryRecordRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, filter entity.MemoryFilter) ([]*entity.MemoryRecord, error) {
	if limit <= 0 {
		limit = constant.DefaultLongTermLimit
	}

	type result struct {
		model.MemoryRecord
		Similarity float64
	}
	var results []result

	if err := r.searchQuery(ctx, embedding, limit, filter).Scan(&results).Error; err != nil {
		return nil, err
	}

	records := make([]*entity.MemoryRecord, 0, len(results))
	for _, res := range results {
		// Guard the owner invariant even if the query is ever widened.
		if res.UserId != filter.OwnerId {
			continue
		}
		rec := r.mapper.ToEntity(&res.MemoryRecord)
		rec.Similarity = res.Similarity
		records = append(records, rec)
	}
	return records, nil
}
