package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/dto"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/handler"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/pkg/serverutils"
	"ai-memchat-be/internal/repository/contract"
	"ai-memchat-be/internal/repository/memory"
	"ai-memchat-be/internal/service"
	"ai-memchat-be/internal/testutil"
	internalWS "ai-memchat-be/internal/websocket"
	"ai-memchat-be/pkg/chatclient"
	"ai-memchat-be/pkg/chatlock"
	"ai-memchat-be/pkg/conversation/assembler"
	"ai-memchat-be/pkg/conversation/generation"
	"ai-memchat-be/pkg/conversation/indexing"
	"ai-memchat-be/pkg/conversation/persistence"
	"ai-memchat-be/pkg/vectorstore/chromem"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type env struct {
	baseURL    string
	verifier   *serverutils.TokenVerifier
	user       *entity.User
	blocked    *entity.User
	transcript *testutil.Transcript
	model      *testutil.Model
	index      contract.MemoryRecordRepository
	indexer    *indexing.Indexer
	hub        *internalWS.Hub
}

func (e *env) wsURL() string {
	return "ws" + strings.TrimPrefix(e.baseURL, "http") + "/ws"
}

func (e *env) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := e.verifier.Issue(userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *env) dial(t *testing.T) *chatclient.Client {
	t.Helper()
	c, err := chatclient.Dial(context.Background(), e.wsURL(), "token", e.token(t, e.user.Id))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func startServer(t *testing.T, index contract.MemoryRecordRepository, replies ...string) *env {
	t.Helper()

	user := &entity.User{Id: uuid.New(), UserName: "alice", Status: entity.UserStatusActive}
	blocked := &entity.User{Id: uuid.New(), UserName: "mallory", Status: entity.UserStatusBlocked}
	transcript := testutil.NewTranscript()
	embedder := testutil.NewEmbedder()
	model := testutil.NewModel(replies...)
	log := logger.NewNopLogger()

	indexer := indexing.NewIndexer(indexing.NewPubSub(), index, embedder, nil, log)
	require.NoError(t, indexer.Consume(context.Background()))

	svc := service.NewChatService(
		transcript,
		assembler.New(transcript, index, embedder),
		generation.NewInvoker(model, time.Second),
		persistence.NewCommitter(transcript, indexer, log),
		chatlock.NewLocalLocker(),
		log,
	)

	verifier := serverutils.NewTokenVerifier(testSecret)
	hub := internalWS.NewHub(log)
	h := handler.NewChatSocketHandler(
		svc,
		verifier,
		memory.NewSessionStore(testutil.NewUsers(user, blocked), time.Minute),
		hub,
		"token",
		log,
	)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(serverutils.ErrorHandlerMiddleware())
	h.RegisterRoutes(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)

	t.Cleanup(func() {
		hub.Shutdown(context.Background())
		app.Shutdown()
		indexer.Wait()
	})

	return &env{
		baseURL:    "http://" + ln.Addr().String(),
		verifier:   verifier,
		user:       user,
		blocked:    blocked,
		transcript: transcript,
		model:      model,
		index:      index,
		indexer:    indexer,
		hub:        hub,
	}
}

func TestServeWs_HandshakeRejections(t *testing.T) {
	e := startServer(t, chromem.New(), "never")

	expired, err := e.verifier.Issue(e.user.Id, -time.Minute)
	require.NoError(t, err)
	forged, err := serverutils.NewTokenVerifier("other-secret").Issue(e.user.Id, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		status int
		reason string
	}{
		{"missing", "", http.StatusUnauthorized, "no credential"},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, "invalid credential"},
		{"expired", expired, http.StatusUnauthorized, "invalid credential"},
		{"wrong signature", forged, http.StatusUnauthorized, "invalid credential"},
		{"unknown user", e.token(t, uuid.New()), http.StatusUnauthorized, "unknown identity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := chatclient.Dial(context.Background(), e.wsURL(), "token", tc.token)

			var hsErr *chatclient.HandshakeError
			require.ErrorAs(t, err, &hsErr)
			assert.Equal(t, tc.status, hsErr.Status)
			assert.Equal(t, tc.reason, hsErr.Reason)
		})
	}

	assert.Equal(t, 0, e.hub.ActiveSessions(uuid.Nil))
	assert.Empty(t, e.model.Contexts())
}

func TestServeWs_BlockedUserIsUnknown(t *testing.T) {
	e := startServer(t, chromem.New())

	_, err := chatclient.Dial(context.Background(), e.wsURL(), "token", e.token(t, e.blocked.Id))

	var hsErr *chatclient.HandshakeError
	require.ErrorAs(t, err, &hsErr)
	assert.Equal(t, http.StatusUnauthorized, hsErr.Status)
	assert.Equal(t, "unknown identity", hsErr.Reason)
}

func TestServeWs_Exchange(t *testing.T) {
	e := startServer(t, chromem.New(), "Let's review the roadmap.")
	chat := uuid.New()
	c := e.dial(t)

	reply, err := c.Ask(chat.String(), "What's next?", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Let's review the roadmap.", reply)

	stored := e.transcript.ForChat(chat)
	require.Len(t, stored, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, stored[0].Role)
	assert.Equal(t, constant.ChatMessageRoleModel, stored[1].Role)
	assert.Equal(t, e.user.Id, stored[0].UserId)

	e.indexer.Wait()
	records, err := e.index.SearchSimilar(context.Background(), testutil.Vector("What's next?", 8), 3, entity.MemoryFilter{OwnerId: e.user.Id})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, 1, e.hub.ActiveSessions(e.user.Id))
}

func TestServeWs_FailureThenRecovery(t *testing.T) {
	e := startServer(t, chromem.New(), "second answer")
	chat := uuid.New()
	e.model.FailNext(testutil.ErrInjected)
	c := e.dial(t)

	_, err := c.Ask(chat.String(), "first", 2*time.Second)
	require.ErrorIs(t, err, chatclient.ErrRemote)
	assert.Equal(t, "server reported a failure: "+constant.GenericProcessingError, err.Error())

	reply, err := c.Ask(chat.String(), "second", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second answer", reply)

	var models int
	for _, m := range e.transcript.ForChat(chat) {
		if m.Role == constant.ChatMessageRoleModel {
			models++
		}
	}
	assert.Equal(t, 1, models, "failed generation persists no model message")
}

func TestServeWs_KeepsSubmissionOrder(t *testing.T) {
	e := startServer(t, chromem.New())
	chat := uuid.New()
	c := e.dial(t)

	var want []string
	for i := 0; i < 8; i++ {
		content := fmt.Sprintf("m%d", i)
		want = append(want, content)
		require.NoError(t, c.Send(chat.String(), content))
	}
	for range want {
		env, err := c.Next(2 * time.Second)
		require.NoError(t, err)
		require.Equal(t, constant.EventAIResponse, env.Event)
	}

	var got []string
	stored := e.transcript.ForChat(chat)
	require.Len(t, stored, 2*len(want))
	for i, m := range stored {
		if i%2 == 0 {
			assert.Equal(t, constant.ChatMessageRoleUser, m.Role)
			got = append(got, m.Content)
		} else {
			assert.Equal(t, constant.ChatMessageRoleModel, m.Role)
		}
	}
	assert.Equal(t, want, got)
}

func TestServeWs_InvalidPayloadKeepsConnection(t *testing.T) {
	e := startServer(t, chromem.New(), "ok")
	c := e.dial(t)

	_, err := c.Ask("not-a-uuid", "hello", 2*time.Second)
	require.ErrorIs(t, err, chatclient.ErrRemote)

	reply, err := c.Ask(uuid.NewString(), "hello", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestServeWs_IndexUnavailable(t *testing.T) {
	e := startServer(t, testutil.FailingMemoryIndex{}, "still answered")
	chat := uuid.New()
	c := e.dial(t)

	reply, err := c.Ask(chat.String(), "remember this", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "still answered", reply)

	stored := e.transcript.ForChat(chat)
	require.Len(t, stored, 2)
	assert.Equal(t, "still answered", stored[1].Content)
}

func TestServeWs_DisconnectClosesSession(t *testing.T) {
	e := startServer(t, chromem.New())
	c, err := chatclient.Dial(context.Background(), e.wsURL(), "token", e.token(t, e.user.Id))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return e.hub.ActiveSessions(e.user.Id) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return e.hub.ActiveSessions(e.user.Id) == 0 }, time.Second, 10*time.Millisecond)
}

func TestGetChatMessages(t *testing.T) {
	e := startServer(t, chromem.New(), "hi there")
	chat := uuid.New()
	c := e.dial(t)
	_, err := c.Ask(chat.String(), "hello", 2*time.Second)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, e.baseURL+"/api/chats/"+chat.String()+"/messages", nil)
	req.Header.Set("Authorization", "Bearer "+e.token(t, e.user.Id))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body serverutils.BaseResponse[dto.GetChatMessagesResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Data, 2)
	assert.Equal(t, "hello", body.Data.Data[0].Content)
	assert.Equal(t, "hi there", body.Data.Data[1].Content)

	unauth, err := http.Get(e.baseURL + "/api/chats/" + chat.String() + "/messages")
	require.NoError(t, err)
	defer unauth.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)

	bad, _ := http.NewRequest(http.MethodGet, e.baseURL+"/api/chats/nope/messages", nil)
	bad.Header.Set("Authorization", "Bearer "+e.token(t, e.user.Id))
	badResp, err := http.DefaultClient.Do(bad)
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestHealth(t *testing.T) {
	e := startServer(t, chromem.New())

	resp, err := http.Get(e.baseURL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"sessions":0`)
}

func TestDial_UnreachableServer(t *testing.T) {
	_, err := chatclient.Dial(context.Background(), "ws://127.0.0.1:1/ws", "token", "x")
	require.Error(t, err)
	var hsErr *chatclient.HandshakeError
	assert.False(t, errors.As(err, &hsErr))
}
