package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/handlers/ws"
)

type WebSocketHandler struct {
	hub           *ws.Hub
	chat          ws.ChatStore
	notifications ws.NotificationStore
	directory     ws.Directory
	presence      ws.PresenceTracker
	verifier      ws.TokenVerifier
}

func NewWebSocketHandler(
	hub *ws.Hub,
	chat ws.ChatStore,
	notifications ws.NotificationStore,
	directory ws.Directory,
	presence ws.PresenceTracker,
	verifier ws.TokenVerifier,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		chat:          chat,
		notifications: notifications,
		directory:     directory,
		presence:      presence,
		verifier:      verifier,
	}
}

// Upgrade gates the HTTP route: only WebSocket upgrade requests pass
// through to the connection handler.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		// Params are not readable from inside the connection handler.
		c.Locals("ws_target", c.Params("conversation_id"))
		c.Locals("ws_token", clientToken(c))
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// clientToken pulls the bearer token from the query string or the
// Authorization header. An empty result is fine; the session then waits
// for an authenticate frame.
func clientToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return c.Get(fiber.HeaderAuthorization)
}

// HandleConnection owns the socket for its lifetime. Authentication
// happens inside the session, not in middleware, so the close codes reach
// the client as application-level codes.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	token, _ := c.Locals("ws_token").(string)
	target, _ := c.Locals("ws_target").(string)

	session := ws.NewSession(h.hub, h.chat, h.notifications, h.directory, h.presence, h.verifier, c)
	session.Run(token, target)
}
