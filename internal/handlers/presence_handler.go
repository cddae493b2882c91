package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/cache"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/httpx"
)

type PresenceHandler struct {
	presence *cache.PresenceCache
}

func NewPresenceHandler(presence *cache.PresenceCache) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// ListOnline returns the ids of users that currently hold a live session.
func (h *PresenceHandler) ListOnline(c *fiber.Ctx) error {
	users, err := h.presence.OnlineUsers()
	if err != nil {
		return httpx.Internal(c, "presence_unavailable")
	}
	count, err := h.presence.OnlineCount()
	if err != nil {
		return httpx.Internal(c, "presence_unavailable")
	}
	if users == nil {
		users = []string{}
	}
	return c.JSON(fiber.Map{
		"online": users,
		"count":  count,
	})
}

// GetUserPresence reports whether one user is currently online.
func (h *PresenceHandler) GetUserPresence(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return httpx.BadRequest(c, "missing_user_id", "user id is required")
	}
	return c.JSON(fiber.Map{
		"user_id": userID,
		"online":  h.presence.IsOnline(userID),
	})
}
