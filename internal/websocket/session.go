package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"ai-memchat-be/internal/dto"
	"ai-memchat-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type SessionState int32

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Session binds one authenticated identity to one connection for the
// connection's lifetime. It is never shared between connections.
type Session struct {
	ID     uuid.UUID
	UserID uuid.UUID

	conn       *websocket.Conn
	hub        *Hub
	dispatcher *Dispatcher
	logger     logger.ILogger

	state     atomic.Int32
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Inbound events, dispatched one at a time in arrival order.
	queueMu  sync.Mutex
	queue    []dto.SocketEnvelope
	draining bool
}

// NewSession is called by the gatekeeper once the credential resolved to
// userID, so the session starts authenticated.
func NewSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID, dispatcher *Dispatcher, log logger.ILogger) *Session {
	s := &Session{
		ID:         uuid.New(),
		UserID:     userID,
		conn:       conn,
		hub:        hub,
		dispatcher: dispatcher,
		logger:     log,
		send:       make(chan []byte, 256),
		done:       make(chan struct{}),
	}
	s.state.Store(int32(StateAuthenticated))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Run activates the session and blocks until the connection ends.
func (s *Session) Run() {
	if !s.state.CompareAndSwap(int32(StateAuthenticated), int32(StateActive)) {
		return
	}
	s.hub.register(s)
	s.logger.Info("Session", "Client connected", map[string]interface{}{
		"session_id": s.ID.String(),
		"user_id":    s.UserID.String(),
	})

	// The connection is released when Run returns, so the writer must be gone by then.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()
	s.readPump()
	<-writerDone
}

// Emit queues an outbound event. After Close it is a no-op that returns
// ErrSessionClosed.
func (s *Session) Emit(event string, payload interface{}) error {
	if s.State() == StateClosed {
		return ErrSessionClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(dto.SocketEnvelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		s.logger.Warn("Session", "Send buffer full, dropping message", map[string]interface{}{
			"session_id": s.ID.String(),
			"user_id":    s.UserID.String(),
			"event":      event,
		})
		return ErrSendBufferFull
	}
}

// Close moves the session to closed and releases it. Safe to call repeatedly.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		s.hub.unregister(s)
		if s.conn != nil {
			s.conn.Close()
		}
		s.logger.Info("Session", "Client disconnected", map[string]interface{}{
			"session_id": s.ID.String(),
			"user_id":    s.UserID.String(),
		})
	})
}

// handle queues one inbound event. Events of a session are dispatched in
// arrival order by a single drainer on a context detached from the
// connection, so closing the socket does not cancel work already queued.
func (s *Session) handle(env dto.SocketEnvelope) {
	if !s.hub.track() {
		s.logger.Warn("Session", "Hub shutting down, frame dropped", map[string]interface{}{
			"session_id": s.ID.String(),
			"user_id":    s.UserID.String(),
			"event":      env.Event,
		})
		return
	}

	s.queueMu.Lock()
	s.queue = append(s.queue, env)
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true
	s.queueMu.Unlock()

	go s.drain()
}

func (s *Session) drain() {
	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.queueMu.Unlock()
			return
		}
		env := s.queue[0]
		s.queue[0] = dto.SocketEnvelope{}
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		func() {
			defer s.hub.inflight.Done()
			s.dispatcher.Dispatch(context.Background(), s, env)
		}()
	}
}
