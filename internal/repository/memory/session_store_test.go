package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepository struct {
	users map[uuid.UUID]*entity.User
	calls int
	err   error
}

func (f *fakeUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return f.users[byID.ID], nil
		}
	}
	return nil, nil
}

func TestSessionStoreResolve(t *testing.T) {
	known := &entity.User{Id: uuid.New(), UserName: "alice", Status: entity.UserStatusActive}
	blocked := &entity.User{Id: uuid.New(), UserName: "mallory", Status: entity.UserStatusBlocked}
	repo := &fakeUserRepository{users: map[uuid.UUID]*entity.User{known.Id: known, blocked.Id: blocked}}
	store := NewSessionStore(repo, time.Minute)
	ctx := context.Background()

	t.Run("known user is cached", func(t *testing.T) {
		u, err := store.Resolve(ctx, known.Id)
		require.NoError(t, err)
		assert.Equal(t, known, u)

		calls := repo.calls
		_, err = store.Resolve(ctx, known.Id)
		require.NoError(t, err)
		assert.Equal(t, calls, repo.calls)
	})

	t.Run("unknown user resolves to nil", func(t *testing.T) {
		u, err := store.Resolve(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("blocked user resolves to nil", func(t *testing.T) {
		u, err := store.Resolve(ctx, blocked.Id)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("store error is returned", func(t *testing.T) {
		failing := NewSessionStore(&fakeUserRepository{err: errors.New("db down")}, time.Minute)
		_, err := failing.Resolve(ctx, uuid.New())
		assert.Error(t, err)
	})
}
