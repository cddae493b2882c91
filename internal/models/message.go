package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletedMessageText replaces the text of a soft-deleted message. The row and
// its timestamp are kept so conversation ordering and history survive deletes.
const DeletedMessageText = "[Message deleted]"

type Message struct {
	ID             string `gorm:"type:uuid;primarykey" json:"id"`
	ConversationID string `gorm:"type:uuid;not null;index:idx_messages_conv_ts" json:"conversation_id"`
	SenderID       string `gorm:"type:uuid;not null;index" json:"sender_id"`

	Text        string   `gorm:"type:text;not null" json:"text"`
	Attachments []string `gorm:"serializer:json" json:"attachments"`

	// Timestamp is the ordering authority for the conversation and for
	// missed-message queries on reconnect.
	Timestamp time.Time `gorm:"not null;index:idx_messages_conv_ts" json:"timestamp"`

	IsRead bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	IsEdited bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at"`

	// Soft delete. Deliberately a plain *time.Time, not gorm.DeletedAt:
	// tombstoned rows must stay visible in every query.
	IsDeleted bool       `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// Tombstone applies the soft-delete mutation in place.
func (m *Message) Tombstone(at time.Time) {
	m.Text = DeletedMessageText
	m.Attachments = []string{}
	m.IsDeleted = true
	m.DeletedAt = &at
}

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Text           string     `json:"text"`
	Attachments    []string   `json:"attachments"`
	Timestamp      time.Time  `json:"timestamp"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
	IsEdited       bool       `json:"is_edited"`
	EditedAt       *time.Time `json:"edited_at"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at"`
}

func (m *Message) ToResponse() MessageResponse {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Attachments:    attachments,
		Timestamp:      m.Timestamp,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		IsEdited:       m.IsEdited,
		EditedAt:       m.EditedAt,
		IsDeleted:      m.IsDeleted,
		DeletedAt:      m.DeletedAt,
	}
}
