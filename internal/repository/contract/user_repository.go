package contract

import (
	"context"

	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/specification"
)

// UserRepository is the read side of the account store used to resolve
// credential identities.
type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}
