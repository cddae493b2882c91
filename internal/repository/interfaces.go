package repository

import (
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
)

// ConversationRepositoryInterface defines the contract for conversation
// persistence. GetOrCreate must be idempotent under concurrent calls for the
// same participant pair.
type ConversationRepositoryInterface interface {
	GetOrCreate(participantA, participantB string) (*models.Conversation, error)
	FindByID(id string) (*models.Conversation, error)
	FindForUser(userID string) ([]models.Conversation, error)
	UpdateLastMessage(id string, text string, timestamp *time.Time) error
	IncrementUnread(id string, userID string) error
	ResetUnread(id string, userID string) error
}

// MessageRepositoryInterface defines the contract for message persistence.
// Rows are never removed; message delete is a tombstoning Update applied by
// the service layer.
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id string) (*models.Message, error)
	FindByConversation(conversationID string, limit, offset int) ([]models.Message, error)
	FindAfter(conversationID string, after time.Time, limit int) ([]models.Message, error)
	FindLatestVisible(conversationID string) (*models.Message, error)
	Update(message *models.Message) error
	MarkAsRead(messageID string) error
	MarkConversationAsRead(conversationID, readerID string) (int64, error)
}

// NotificationRepositoryInterface defines the contract for notification
// persistence, independent of any delivery channel.
type NotificationRepositoryInterface interface {
	Create(notification *models.Notification) error
	FindByID(id string) (*models.Notification, error)
	FindByUser(userID string, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(id string) error
	MarkAllAsRead(userID string) (int64, error)
	Delete(id string) error
	CountUnread(userID string) (int64, error)
}

// UserRepositoryInterface is the narrow user lookup this subsystem consumes.
type UserRepositoryInterface interface {
	FindByID(id string) (*models.User, error)
	UpdateLastSeen(id string) error
}
