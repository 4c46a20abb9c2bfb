package gemini

import (
	"testing"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToContents_RoleMapping(t *testing.T) {
	contents := toContents([]llm.Message{
		{Role: constant.ChatMessageRoleMemory, Content: "memory"},
		{Role: constant.ChatMessageRoleUser, Content: "q"},
		{Role: constant.ChatMessageRoleModel, Content: "a"},
	})

	require.Len(t, contents, 3)
	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleUser, contents[1].Role)
	assert.EqualValues(t, genai.RoleModel, contents[2].Role)
	assert.Equal(t, "a", contents[2].Parts[0].Text)
}
