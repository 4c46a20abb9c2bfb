package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage rows are append-only; there is no soft delete.
type ChatMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId    uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_chat_created,priority:1"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"type:varchar(20);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_messages_chat_created,priority:2,sort:desc"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
