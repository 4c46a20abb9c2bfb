package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/dto"
	"ai-memchat-be/internal/pkg/logger"
)

// HandlerFunc handles one inbound event for a session.
type HandlerFunc func(ctx context.Context, s *Session, data json.RawMessage) error

// Dispatcher is the event table of a connection: one handler per event name.
// It is also the error boundary; a failed handler yields exactly one generic
// ai-error and the connection stays open.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   logger.ILogger
}

func NewDispatcher(log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   log,
	}
}

// On registers h for event, replacing any previous handler.
func (d *Dispatcher) On(event string, h HandlerFunc) {
	d.handlers[event] = h
}

// Events lists registered event names.
func (d *Dispatcher) Events() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, env dto.SocketEnvelope) {
	h, ok := d.handlers[env.Event]
	if !ok {
		d.logger.Warn("Dispatcher", "Unknown event ignored", map[string]interface{}{
			"user_id": s.UserID.String(),
			"event":   env.Event,
		})
		return
	}

	if err := d.run(ctx, h, s, env.Data); err != nil {
		d.report(s, env.Event, err)
	}
}

func (d *Dispatcher) run(ctx context.Context, h HandlerFunc, s *Session, data json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, s, data)
}

// report logs the failure with full detail and sends the client only the
// generic message.
func (d *Dispatcher) report(s *Session, event string, err error) {
	d.logger.Error("Dispatcher", "Message handling failed", map[string]interface{}{
		"user_id":    s.UserID.String(),
		"session_id": s.ID.String(),
		"event":      event,
		"error":      err.Error(),
	})

	if emitErr := s.Emit(constant.EventAIError, dto.AIError{Error: constant.GenericProcessingError}); emitErr != nil {
		d.logger.Debug("Dispatcher", "Failure notification not delivered", map[string]interface{}{
			"user_id": s.UserID.String(),
			"error":   emitErr.Error(),
		})
	}
}
