package specification

import (
	"ai-memchat-be/internal/entity"

	"gorm.io/gorm"
)

// ActiveUsers excludes blocked accounts.
type ActiveUsers struct{}

func (s ActiveUsers) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", entity.UserStatusActive)
}
