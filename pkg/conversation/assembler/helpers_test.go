package assembler

import (
	"ai-memchat-be/internal/constant"
	"ai-memchat-be/pkg/llm"
)

func llmUser(content string) llm.Message {
	return llm.Message{Role: constant.ChatMessageRoleUser, Content: content}
}
