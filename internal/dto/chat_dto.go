package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SocketEnvelope is the frame exchanged over the chat socket.
type SocketEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SubmitMessageRequest is the payload of an "ai-message" event.
type SubmitMessageRequest struct {
	Chat    string `json:"chat" validate:"required,uuid"`
	Content string `json:"content" validate:"required,max=8000"`
}

// AIResponse is the payload of an "ai-response" event.
type AIResponse struct {
	Content string `json:"content"`
	Chat    string `json:"chat"`
}

// AIError is the payload of an "ai-error" event.
type AIError struct {
	Error string `json:"error"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type GetChatMessagesResponse struct {
	Data  []ChatMessageResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
