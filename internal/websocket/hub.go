package websocket

import (
	"context"
	"sync"

	"ai-memchat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks active sessions and the handlers they started.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Session]struct{} // UserID -> sessions (multi-device)
	closing  bool
	inflight sync.WaitGroup
	logger   logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*Session]struct{}),
		logger:   log,
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.UserID] == nil {
		h.sessions[s.UserID] = make(map[*Session]struct{})
	}
	h.sessions[s.UserID][s] = struct{}{}
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[s.UserID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.UserID)
		}
	}
}

// track counts one more queued event, unless Shutdown has started.
// Add and the closing check share h.mu so no Add follows Shutdown's Wait.
func (h *Hub) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.inflight.Add(1)
	return true
}

// ActiveSessions counts sessions for userID, or all sessions for uuid.Nil.
func (h *Hub) ActiveSessions(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if userID != uuid.Nil {
		return len(h.sessions[userID])
	}
	total := 0
	for _, set := range h.sessions {
		total += len(set)
	}
	return total
}

// Shutdown stops accepting events, closes every session, then waits for
// queued handlers until ctx ends.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	var all []*Session
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub", "All handlers drained", map[string]interface{}{"sessions": len(all)})
		return nil
	case <-ctx.Done():
		h.logger.Warn("Hub", "Shutdown deadline reached with handlers running", nil)
		return ctx.Err()
	}
}
