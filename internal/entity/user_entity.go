package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id        uuid.UUID
	UserName  string
	Email     string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
