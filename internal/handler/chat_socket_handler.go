package handler

import (
	"context"
	"encoding/json"
	"errors"

	"ai-memchat-be/internal/constant"
	"ai-memchat-be/internal/dto"
	"ai-memchat-be/internal/entity"
	"ai-memchat-be/internal/pkg/logger"
	"ai-memchat-be/internal/pkg/serverutils"
	"ai-memchat-be/internal/service"
	internalWS "ai-memchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IdentityResolver is the Session Store seen from the gatekeeper.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

type ChatSocketHandler struct {
	service    service.IChatService
	verifier   *serverutils.TokenVerifier
	identities IdentityResolver
	hub        *internalWS.Hub
	dispatcher *internalWS.Dispatcher
	cookieName string
	logger     logger.ILogger
}

func NewChatSocketHandler(
	chatService service.IChatService,
	verifier *serverutils.TokenVerifier,
	identities IdentityResolver,
	hub *internalWS.Hub,
	cookieName string,
	log logger.ILogger,
) *ChatSocketHandler {
	h := &ChatSocketHandler{
		service:    chatService,
		verifier:   verifier,
		identities: identities,
		hub:        hub,
		dispatcher: internalWS.NewDispatcher(log),
		cookieName: cookieName,
		logger:     log,
	}
	h.dispatcher.On(constant.EventAIMessage, h.onAIMessage)
	return h
}

func (h *ChatSocketHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/ws", h.ServeWs)

	api := app.Group("/api")
	api.Get("/health", h.Health)

	chats := api.Group("/chats")
	chats.Use(serverutils.JwtMiddleware(h.verifier, h.cookieName))
	chats.Get("/:chatId/messages", h.GetChatMessages)
}

// authenticate resolves the handshake credential to a known identity.
func (h *ChatSocketHandler) authenticate(c *fiber.Ctx) (uuid.UUID, error) {
	token := serverutils.ExtractCredential(c, h.cookieName)
	if token == "" {
		return uuid.Nil, serverutils.ErrMissingCredential
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}

	user, err := h.identities.Resolve(c.UserContext(), userID)
	if err != nil {
		return uuid.Nil, err
	}
	if user == nil {
		return uuid.Nil, serverutils.ErrUnknownIdentity
	}
	return user.Id, nil
}

// ServeWs is the gatekeeper. A rejected handshake ends with 401 before the
// upgrade, so no session ever exists for it.
func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	userID, err := h.authenticate(c)
	if err != nil {
		reason := "unknown identity"
		status := fiber.StatusUnauthorized
		switch {
		case errors.Is(err, serverutils.ErrMissingCredential):
			reason = "no credential"
		case errors.Is(err, serverutils.ErrInvalidCredential):
			reason = "invalid credential"
		case errors.Is(err, serverutils.ErrUnknownIdentity):
		default:
			reason = "identity lookup failed"
			status = fiber.StatusServiceUnavailable
		}

		h.logger.Warn("ChatSocketHandler", "Handshake rejected", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
			"ip":     c.IP(),
		})
		return c.Status(status).JSON(fiber.Map{"error": reason})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.NewSession(h.hub, conn, userID, h.dispatcher, h.logger).Run()
	})(c)
}

func (h *ChatSocketHandler) onAIMessage(ctx context.Context, s *internalWS.Session, data json.RawMessage) error {
	var req dto.SubmitMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errors.Join(service.ErrProcessing, err)
	}
	return h.service.HandleMessage(ctx, s.UserID, req, s)
}

// GetChatMessages returns the caller's transcript of one chat.
func (h *ChatSocketHandler) GetChatMessages(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid chat id")
	}

	res, err := h.service.GetChatMessages(c.UserContext(), userID, chatID, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Chat messages", res))
}

func (h *ChatSocketHandler) Health(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("OK", fiber.Map{
		"sessions": h.hub.ActiveSessions(uuid.Nil),
	}))
}
