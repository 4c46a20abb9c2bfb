package mapper

import (
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type MemoryRecordMapper struct{}

func NewMemoryRecordMapper() *MemoryRecordMapper {
	return &MemoryRecordMapper{}
}

func (m *MemoryRecordMapper) ToEntity(r *model.MemoryRecord) *entity.MemoryRecord {
	if r == nil {
		return nil
	}

	return &entity.MemoryRecord{
		Id:             r.Id,
		ChatMessageId:  r.ChatMessageId,
		ChatId:         r.ChatId,
		UserId:         r.UserId,
		Text:           r.Text,
		EmbeddingValue: r.EmbeddingValue.Slice(),
		CreatedAt:      r.CreatedAt,
	}
}

func (m *MemoryRecordMapper) ToModel(r *entity.MemoryRecord) *model.MemoryRecord {
	if r == nil {
		return nil
	}

	return &model.MemoryRecord{
		Id:             r.Id,
		ChatMessageId:  r.ChatMessageId,
		ChatId:         r.ChatId,
		UserId:         r.UserId,
		Text:           r.Text,
		EmbeddingValue: pgvector.NewVector(r.EmbeddingValue),
		CreatedAt:      r.CreatedAt,
	}
}
