package memory

import (
	"context"
	"time"

	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionStore resolves credential identities to users. Only positive
// lookups are cached so a freshly registered account is visible immediately.
type SessionStore struct {
	users contract.UserRepository
	cache *cache.Cache
}

func NewSessionStore(users contract.UserRepository, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SessionStore{
		users: users,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Resolve returns nil, nil when the identity does not exist or is blocked.
func (s *SessionStore) Resolve(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	key := userID.String()
	if x, found := s.cache.Get(key); found {
		return x.(*entity.User), nil
	}

	user, err := s.users.FindOne(ctx, specification.ByID{ID: userID}, specification.ActiveUsers{})
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.UserStatusBlocked {
		return nil, nil
	}

	s.cache.Set(key, user, cache.DefaultExpiration)
	return user, nil
}
