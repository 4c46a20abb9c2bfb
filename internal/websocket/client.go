package websocket

import (
	"encoding/json"
	"time"

	"ai-memchat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// readPump decodes inbound frames and hands them to the dispatcher.
// It runs in the handler goroutine and closes the session on exit.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("Session", "Unexpected close", map[string]interface{}{
					"session_id": s.ID.String(),
					"user_id":    s.UserID.String(),
					"error":      err.Error(),
				})
			}
			return
		}
		if s.State() != StateActive {
			return
		}

		var env dto.SocketEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			s.logger.Warn("Session", "Malformed frame ignored", map[string]interface{}{
				"session_id": s.ID.String(),
				"user_id":    s.UserID.String(),
			})
			continue
		}
		s.handle(env)
	}
}

// writePump owns all writes to the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// One envelope per frame
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
