package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType is the closed set of user-facing notification kinds.
// Producers must use one of these; anything else is rejected at the store
// boundary.
type NotificationType string

const (
	NotificationNewMessage          NotificationType = "new_message"
	NotificationPaymentSuccess      NotificationType = "payment_success"
	NotificationPaymentReceived     NotificationType = "payment_received"
	NotificationSubscriptionUpdated NotificationType = "subscription_updated"
	NotificationSessionRequest      NotificationType = "session_request"
	NotificationSessionAccept       NotificationType = "session_accept"
	NotificationSessionReject       NotificationType = "session_reject"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewMessage,
		NotificationPaymentSuccess,
		NotificationPaymentReceived,
		NotificationSubscriptionUpdated,
		NotificationSessionRequest,
		NotificationSessionAccept,
		NotificationSessionReject:
		return true
	}
	return false
}

type Notification struct {
	ID     string           `gorm:"type:uuid;primarykey" json:"id"`
	UserID string           `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type   NotificationType `gorm:"type:varchar(32);not null" json:"type"`

	Title string `gorm:"type:varchar(200);not null" json:"title"`
	Body  string `gorm:"type:text;not null" json:"body"`

	// RelatedID optionally points at the entity the notification is about
	// (conversation, payment, session request).
	RelatedID *string `gorm:"type:uuid" json:"related_id"`

	IsRead bool       `gorm:"not null;default:false;index:idx_notifications_user_read" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

type NotificationResponse struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	RelatedID *string          `json:"related_id"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
