package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/dto"

	"github.com/gorilla/websocket"
)

// ErrRemote is returned when the server answered with an ai-error event.
var ErrRemote = errors.New("server reported a failure")

// HandshakeError carries the server's reason for refusing the upgrade.
type HandshakeError struct {
	Status int
	Reason string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected (%d): %s", e.Status, e.Reason)
}

// Client speaks the chat socket protocol: JSON envelopes {event, data}.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Dial connects to url presenting token as the named cookie.
func Dial(ctx context.Context, url, cookieName, token string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", (&http.Cookie{Name: cookieName, Value: token}).String())
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			var body struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			return nil, &HandshakeError{Status: resp.StatusCode, Reason: body.Error}
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Send emits one ai-message event.
func (c *Client) Send(chatID, content string) error {
	data, err := json.Marshal(dto.SubmitMessageRequest{Chat: chatID, Content: content})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(dto.SocketEnvelope{Event: constant.EventAIMessage, Data: data})
}

// Next reads the next envelope. A zero timeout waits forever.
func (c *Client) Next(timeout time.Duration) (dto.SocketEnvelope, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	c.conn.SetReadDeadline(deadline)

	var env dto.SocketEnvelope
	err := c.conn.ReadJSON(&env)
	return env, err
}

// Ask sends content and waits for the reply to chatID or an ai-error.
// Replies for other chats arriving in between are skipped.
func (c *Client) Ask(chatID, content string, timeout time.Duration) (string, error) {
	if err := c.Send(chatID, content); err != nil {
		return "", err
	}

	for {
		env, err := c.Next(timeout)
		if err != nil {
			return "", err
		}

		switch env.Event {
		case constant.EventAIResponse:
			var res dto.AIResponse
			if err := json.Unmarshal(env.Data, &res); err != nil {
				return "", err
			}
			if res.Chat == chatID {
				return res.Content, nil
			}
		case constant.EventAIError:
			var res dto.AIError
			if err := json.Unmarshal(env.Data, &res); err != nil {
				return "", err
			}
			return "", fmt.Errorf("%w: %s", ErrRemote, res.Error)
		}
	}
}

// Close sends a normal close frame and drops the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
