package repository

import (
	"errors"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindByConversation returns messages newest first. Tombstoned messages are
// included so clients can render deletion placeholders in place.
func (r *MessageRepository) FindByConversation(conversationID string, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// FindAfter returns messages with a timestamp strictly greater than after,
// oldest first. This is the missed-message query used on reconnection.
func (r *MessageRepository) FindAfter(conversationID string, after time.Time, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("conversation_id = ? AND timestamp > ?", conversationID, after).
		Order("timestamp ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// FindLatestVisible returns the newest non-deleted message of a conversation,
// or nil when none remain.
func (r *MessageRepository) FindLatestVisible(conversationID string) (*models.Message, error) {
	var message models.Message
	err := r.db.
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("timestamp DESC").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) Update(message *models.Message) error {
	return r.db.Save(message).Error
}

func (r *MessageRepository) MarkAsRead(messageID string) error {
	return r.db.Model(&models.Message{}).Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		}).Error
}

// MarkConversationAsRead marks every unread message in the conversation not
// sent by the reader and reports how many rows changed.
func (r *MessageRepository) MarkConversationAsRead(conversationID, readerID string) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
