// Package chatlock keeps exchanges of one chat from overlapping, so a
// transcript always alternates user/model. Submission order within a
// connection is kept by the session's FIFO dispatch, not by the lock.
package chatlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants exclusive access to one chat. The returned unlock func is
// safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, chatID uuid.UUID) (unlock func(), err error)
}

// New builds the locker named by kind: "local", "redis" or "none".
func New(kind string, rdb *redis.Client, ttl time.Duration) (Locker, error) {
	switch kind {
	case "local", "":
		return NewLocalLocker(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis chat lock requires REDIS_URL")
		}
		return NewRedisLocker(rdb, ttl), nil
	case "none":
		return NoopLocker{}, nil
	default:
		return nil, fmt.Errorf("unsupported chat lock: %s", kind)
	}
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker is an in-process lock table. Entries are dropped once no
// goroutine holds or waits on them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*localEntry
}

var (
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
	_ Locker = NoopLocker{}
)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[uuid.UUID]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, chatID uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[chatID]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[chatID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(chatID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(chatID, e)
		})
	}, nil
}

func (l *LocalLocker) release(chatID uuid.UUID, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, chatID)
	}
}

// NoopLocker never blocks; overlapping submissions may interleave.
type NoopLocker struct{}

func (NoopLocker) Lock(ctx context.Context, chatID uuid.UUID) (func(), error) {
	return func() {}, nil
}
