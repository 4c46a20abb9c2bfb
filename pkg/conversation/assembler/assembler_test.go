package assembler

import (
	"context"
	"testing"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/testutil"
	"ai-memchat-be/pkg/vectorstore/chromem"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_ScenarioWithLongTermMemory(t *testing.T) {
	ctx := context.Background()
	transcript := testutil.NewTranscript()
	index := chromem.New()
	embedder := testutil.NewEmbedder()

	user := uuid.New()
	other := uuid.New()
	chat := uuid.New()
	prior := transcript.Seed(chat, user, 8)

	question := "What's next?"
	require.NoError(t, index.Create(ctx, &entity.MemoryRecord{
		ChatMessageId: uuid.New(), ChatId: uuid.New(), UserId: user,
		Text: "discussed roadmap", EmbeddingValue: testutil.Vector(question, embedder.Dims),
	}))
	require.NoError(t, index.Create(ctx, &entity.MemoryRecord{
		ChatMessageId: uuid.New(), ChatId: uuid.New(), UserId: other,
		Text: "someone else's secret", EmbeddingValue: testutil.Vector(question, embedder.Dims),
	}))

	res, err := New(transcript, index, embedder).Assemble(ctx, user, chat, question)
	require.NoError(t, err)

	require.Len(t, res.Context, 10)
	assert.Equal(t, constant.ChatMessageRoleMemory, res.Context[0].Role)
	assert.Equal(t, constant.LongTermMemoryPreamble+"\n\ndiscussed roadmap", res.Context[0].Content)
	for i, m := range prior {
		assert.Equal(t, m.Content, res.Context[i+1].Content, "history must be oldest first")
		assert.Equal(t, m.Role, res.Context[i+1].Role)
	}
	assert.Equal(t, llmUser(question), res.Context[9])

	for _, m := range res.Context {
		assert.NotContains(t, m.Content, "someone else's secret")
	}

	require.NotNil(t, res.UserMessage)
	assert.NotEqual(t, uuid.Nil, res.UserMessage.Id)
	assert.Equal(t, testutil.Vector(question, embedder.Dims), res.UserEmbedding)
	assert.Len(t, transcript.ForChat(chat), 9)
}

func TestAssemble_NoMemoryOmitsLongTermEntry(t *testing.T) {
	ctx := context.Background()
	transcript := testutil.NewTranscript()
	user, chat := uuid.New(), uuid.New()

	res, err := New(transcript, chromem.New(), testutil.NewEmbedder()).Assemble(ctx, user, chat, "hello")
	require.NoError(t, err)

	require.Len(t, res.Context, 1)
	assert.Equal(t, llmUser("hello"), res.Context[0])
	assert.Empty(t, res.Memories)
}

func TestAssemble_ShortTermWindowNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	transcript := testutil.NewTranscript()
	user, chat := uuid.New(), uuid.New()
	prior := transcript.Seed(chat, user, 30)

	a := New(transcript, testutil.FailingMemoryIndex{}, testutil.NewEmbedder())
	res, err := a.Assemble(ctx, user, chat, "latest")
	require.NoError(t, err)

	require.Len(t, res.Context, constant.DefaultShortTermLimit)
	want := prior[len(prior)-(constant.DefaultShortTermLimit-1):]
	for i, m := range want {
		assert.Equal(t, m.Content, res.Context[i].Content)
	}
	assert.Equal(t, llmUser("latest"), res.Context[len(res.Context)-1])
}

func TestAssemble_CustomLimits(t *testing.T) {
	ctx := context.Background()
	transcript := testutil.NewTranscript()
	index := chromem.New()
	embedder := testutil.NewEmbedder()
	user, chat := uuid.New(), uuid.New()
	transcript.Seed(chat, user, 6)

	for i := 0; i < 4; i++ {
		require.NoError(t, index.Create(ctx, &entity.MemoryRecord{
			ChatMessageId: uuid.New(), ChatId: chat, UserId: user,
			Text: "memory", EmbeddingValue: testutil.Vector("memory", embedder.Dims),
		}))
	}

	res, err := New(transcript, index, embedder, WithShortTermLimit(4), WithLongTermLimit(2)).
		Assemble(ctx, user, chat, "memory")
	require.NoError(t, err)

	assert.Len(t, res.Memories, 2)
	// memory entry + 3 history + current
	assert.Len(t, res.Context, 5)
}

func TestAssemble_Failures(t *testing.T) {
	ctx := context.Background()
	user, chat := uuid.New(), uuid.New()

	t.Run("embedding failure", func(t *testing.T) {
		embedder := testutil.NewEmbedder()
		embedder.Fail(testutil.ErrInjected)

		_, err := New(testutil.NewTranscript(), chromem.New(), embedder).Assemble(ctx, user, chat, "x")
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})

	t.Run("transcript failure", func(t *testing.T) {
		transcript := testutil.NewTranscript()
		transcript.FailCreates(testutil.ErrInjected)

		_, err := New(transcript, chromem.New(), testutil.NewEmbedder()).Assemble(ctx, user, chat, "x")
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})
}

func TestLongTermEntry(t *testing.T) {
	_, ok := LongTermEntry(nil)
	assert.False(t, ok)

	entry, ok := LongTermEntry([]*entity.MemoryRecord{{Text: "a"}, {Text: "b"}})
	require.True(t, ok)
	assert.Equal(t, constant.ChatMessageRoleMemory, entry.Role)
	assert.Equal(t, constant.LongTermMemoryPreamble+"\n\na\nb", entry.Content)
}

func TestChronological_DropsCurrent(t *testing.T) {
	current := uuid.New()
	a := &entity.ChatMessage{Id: uuid.New(), Content: "a"}
	b := &entity.ChatMessage{Id: uuid.New(), Content: "b"}
	cur := &entity.ChatMessage{Id: current, Content: "cur"}

	out := chronological([]*entity.ChatMessage{cur, b, a}, current)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Content)
	assert.Equal(t, "b", out[1].Content)
}
