package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/httpx"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/service"
)

type ConversationHandler struct {
	chatService *service.ChatService
}

func NewConversationHandler(chatService *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chatService: chatService}
}

// ListConversations returns the caller's conversations, most recently
// active first.
func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversations, err := h.chatService.ConversationsForUser(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_conversations_failed")
	}

	responses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, conversations[i].ToResponse())
	}
	return c.JSON(fiber.Map{
		"conversations": responses,
		"count":         len(responses),
	})
}

type createConversationInput struct {
	ParticipantID string `json:"participant_id"`
}

// CreateConversation finds or creates the conversation between the caller
// and the given participant. Idempotent: the same pair always maps to the
// same conversation.
func (h *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input createConversationInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.ParticipantID == "" {
		return httpx.BadRequest(c, "missing_participant", "participant_id is required")
	}

	conversation, err := h.chatService.GetOrCreateConversation(userID, input.ParticipantID)
	if err != nil {
		if errors.Is(err, service.ErrSameParticipant) {
			return httpx.BadRequest(c, "same_participant", "Cannot start a conversation with yourself")
		}
		return httpx.Internal(c, "create_conversation_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(conversation.ToResponse())
}

// GetMessages pages through a conversation's history, newest first.
// Tombstoned messages come back with placeholder text so clients keep
// their ordering intact.
func (h *ConversationHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversationID := c.Params("id")
	if conversationID == "" {
		return httpx.BadRequest(c, "missing_conversation", "conversation id is required")
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

	messages, err := h.chatService.GetMessages(conversationID, userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			return httpx.NotFound(c, "conversation_not_found", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			return httpx.Forbidden(c, "not_a_participant", "Not a participant of this conversation")
		default:
			return httpx.Internal(c, "fetch_messages_failed")
		}
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}
	return c.JSON(fiber.Map{
		"messages": responses,
		"count":    len(responses),
	})
}
