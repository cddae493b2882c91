package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/httpx"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/storage"
)

type AttachmentHandler struct {
	storage *storage.AttachmentStorage
}

func NewAttachmentHandler(storage *storage.AttachmentStorage) *AttachmentHandler {
	return &AttachmentHandler{storage: storage}
}

type presignUploadInput struct {
	Filename string `json:"filename"`
}

// PresignUpload issues a presigned PUT URL. The client uploads directly to
// object storage and then references the returned key in a message's
// attachments list.
func (h *AttachmentHandler) PresignUpload(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if h.storage == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Attachment storage is not configured")
	}

	var input presignUploadInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Filename == "" {
		return httpx.BadRequest(c, "missing_filename", "filename is required")
	}

	key, uploadURL, err := h.storage.PresignUpload(c.Context(), userID, input.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrBadObjectKey) {
			return httpx.BadRequest(c, "invalid_filename", "Invalid filename")
		}
		return httpx.Internal(c, "presign_upload_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":        key,
		"upload_url": uploadURL,
	})
}

// PresignDownload resolves an attachment key to a short-lived GET URL.
func (h *AttachmentHandler) PresignDownload(c *fiber.Ctx) error {
	if _, err := httpx.LocalString(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if h.storage == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Attachment storage is not configured")
	}

	key := c.Query("key")
	if key == "" {
		return httpx.BadRequest(c, "missing_key", "key is required")
	}

	downloadURL, err := h.storage.PresignDownload(c.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrBadObjectKey) {
			return httpx.BadRequest(c, "invalid_key", "Invalid key")
		}
		return httpx.Internal(c, "presign_download_failed")
	}

	return c.JSON(fiber.Map{"download_url": downloadURL})
}

// DeleteAttachment removes an uploaded object. Keys are namespaced per
// uploader, so callers can only delete under their own prefix.
func (h *AttachmentHandler) DeleteAttachment(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	key := c.Query("key")
	if key == "" {
		return httpx.BadRequest(c, "missing_key", "key is required")
	}
	if !strings.HasPrefix(key, "attachments/"+userID+"/") {
		return httpx.Forbidden(c, "not_owner", "Cannot delete another user's attachment")
	}
	if h.storage == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Attachment storage is not configured")
	}

	if err := h.storage.DeleteObject(c.Context(), key); err != nil {
		if errors.Is(err, storage.ErrBadObjectKey) {
			return httpx.BadRequest(c, "invalid_key", "Invalid key")
		}
		return httpx.Internal(c, "delete_attachment_failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
