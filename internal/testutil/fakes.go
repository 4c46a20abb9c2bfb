// Package testutil holds in-process collaborators for pipeline tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/repository/specification"
	"ai-memchat-be/pkg/embedding"
	"ai-memchat-be/pkg/llm"

	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected failure")

// Transcript is an in-memory ChatMessageRepository. Specifications are
// ignored by FindAll and Count.
type Transcript struct {
	mu        sync.Mutex
	messages  []*entity.ChatMessage
	createErr error
	clock     time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{clock: time.Now()}
}

// Seed appends count alternating user/model messages to chatID.
func (t *Transcript) Seed(chatID, userID uuid.UUID, count int) []*entity.ChatMessage {
	seeded := make([]*entity.ChatMessage, 0, count)
	for i := 0; i < count; i++ {
		role := "user"
		if i%2 == 1 {
			role = "model"
		}
		m := &entity.ChatMessage{ChatId: chatID, UserId: userID, Role: role, Content: fmt.Sprintf("%s-%d", role, i)}
		_ = t.Create(context.Background(), m)
		seeded = append(seeded, m)
	}
	return seeded
}

// FailCreates makes every later Create return err. nil restores normal writes.
func (t *Transcript) FailCreates(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.createErr = err
}

func (t *Transcript) Create(ctx context.Context, message *entity.ChatMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.createErr != nil {
		return t.createErr
	}
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	// Strictly increasing timestamps keep ordering deterministic.
	t.clock = t.clock.Add(time.Millisecond)
	message.CreatedAt = t.clock
	cp := *message
	t.messages = append(t.messages, &cp)
	return nil
}

func (t *Transcript) FindRecent(ctx context.Context, chatId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	all := t.ForChat(chatId)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (t *Transcript) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entity.ChatMessage, 0, len(t.messages))
	for _, m := range t.messages {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (t *Transcript) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.messages)), nil
}

// ForChat returns the chat's messages oldest first.
func (t *Transcript) ForChat(chatID uuid.UUID) []*entity.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range t.messages {
		if m.ChatId == chatID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

// Embedder derives a deterministic unit vector from the text.
type Embedder struct {
	mu    sync.Mutex
	err   error
	calls int
	Dims  int
}

var _ embedding.EmbeddingProvider = (*Embedder)(nil)

func NewEmbedder() *Embedder {
	return &Embedder{Dims: 8}
}

func (e *Embedder) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *Embedder) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return Vector(text, e.Dims), nil
}

// Vector is the embedding Embedder returns for text.
func Vector(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed>>40)/float32(1<<24) + 0.01
	}
	return embedding.NormalizeVector(vec)
}

// Model is a scripted LLMProvider that records every context it receives.
type Model struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	contexts [][]llm.Message
	Gate     chan struct{}
}

var _ llm.LLMProvider = (*Model)(nil)

// NewModel replies with the given texts in order, then repeats the last one.
func NewModel(replies ...string) *Model {
	return &Model{replies: replies}
}

// FailNext makes the next call return err.
func (m *Model) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *Model) Contexts() [][]llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]llm.Message, len(m.contexts))
	copy(out, m.contexts)
	return out
}

func (m *Model) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]llm.Message, len(history))
	copy(cp, history)
	m.contexts = append(m.contexts, cp)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	if len(m.replies) == 0 {
		return "ok", nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

// Users is an in-memory UserRepository keyed by id.
type Users struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func NewUsers(users ...*entity.User) *Users {
	u := &Users{users: make(map[uuid.UUID]*entity.User)}
	for _, user := range users {
		u.users[user.Id] = user
	}
	return u
}

func (u *Users) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			if user, found := u.users[byID.ID]; found {
				cp := *user
				return &cp, nil
			}
		}
	}
	return nil, nil
}

// FailingMemoryIndex rejects every write and returns no results.
type FailingMemoryIndex struct{}

func (FailingMemoryIndex) Create(ctx context.Context, record *entity.MemoryRecord) error {
	return ErrInjected
}

func (FailingMemoryIndex) SearchSimilar(ctx context.Context, embedding []float32, limit int, filter entity.MemoryFilter) ([]*entity.MemoryRecord, error) {
	return []*entity.MemoryRecord{}, nil
}
