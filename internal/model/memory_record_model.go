package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type MemoryRecord struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ChatId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text           string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // gemini-embedding-001 truncated to 768 dims
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (MemoryRecord) TableName() string {
	return "memory_records"
}
