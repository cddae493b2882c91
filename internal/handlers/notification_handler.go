package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/httpx"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.List(userID, limit, offset, unreadOnly)
	if err != nil {
		return httpx.Internal(c, "fetch_notifications_failed")
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}
	return c.JSON(fiber.Map{
		"notifications": responses,
		"count":         len(responses),
	})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		return httpx.Internal(c, "count_notifications_failed")
	}
	return c.JSON(fiber.Map{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.notificationService.MarkRead(userID, c.Params("id")); err != nil {
		return notificationError(c, err, "mark_notification_failed")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	count, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		return httpx.Internal(c, "mark_all_notifications_failed")
	}
	return c.JSON(fiber.Map{"marked": count})
}

func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	if err := h.notificationService.Delete(userID, c.Params("id")); err != nil {
		return notificationError(c, err, "delete_notification_failed")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func notificationError(c *fiber.Ctx, err error, internalCode string) error {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		return httpx.NotFound(c, "notification_not_found", "Notification not found")
	case errors.Is(err, service.ErrNotOwner):
		return httpx.Forbidden(c, "not_owner", "Notification belongs to another user")
	default:
		return httpx.Internal(c, internalCode)
	}
}
