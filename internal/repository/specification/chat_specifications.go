package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// Newest returns the most recent limit rows, newest first.
func Newest(limit int) []Specification {
	return []Specification{
		OrderBy{Field: "created_at", Desc: true},
		Pagination{Limit: limit},
	}
}
