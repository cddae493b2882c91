package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/repository"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotOwner             = errors.New("notification belongs to another user")
	ErrInvalidNotification  = errors.New("invalid notification")
)

// Pusher delivers a notification to a user's live sessions, if any. Push is
// fire and forget: the notification is already persisted by the time it is
// called, and an offline user picks it up on the next sync.
type Pusher interface {
	Push(userID string, notification *models.Notification)
}

type NotificationService struct {
	notificationRepo repository.NotificationRepositoryInterface
	pusher           Pusher
}

func NewNotificationService(notificationRepo repository.NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// SetPusher wires in live delivery after construction. The socket hub is
// built after the services it depends on, so this cannot go through the
// constructor.
func (s *NotificationService) SetPusher(p Pusher) {
	s.pusher = p
}

// Create validates and persists a notification without pushing it.
func (s *NotificationService) Create(userID string, ntype models.NotificationType, title, body string, relatedID *string) (*models.Notification, error) {
	if userID == "" || title == "" || body == "" {
		return nil, ErrInvalidNotification
	}
	if !ntype.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, ntype)
	}

	notification := &models.Notification{
		UserID:    userID,
		Type:      ntype,
		Title:     title,
		Body:      body,
		RelatedID: relatedID,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// Send persists a notification and then pushes it to the recipient's live
// sessions. Persist first: a failed push costs nothing, the record is
// replayed on the next sync.
func (s *NotificationService) Send(userID string, ntype models.NotificationType, title, body string, relatedID *string) (*models.Notification, error) {
	notification, err := s.Create(userID, ntype, title, body, relatedID)
	if err != nil {
		return nil, err
	}
	if s.pusher != nil {
		s.pusher.Push(userID, notification)
	}
	return notification, nil
}

// NotifyNewMessage builds and sends the standard new-message notification.
// It satisfies the chat service's NotificationSender.
func (s *NotificationService) NotifyNewMessage(recipientID, senderID, senderName, text, conversationID string) error {
	if senderName == "" {
		senderName = "Someone"
	}
	title := fmt.Sprintf("New message from %s", senderName)
	body := validation.TruncatePreview(text, 100)
	_, err := s.Send(recipientID, models.NotificationNewMessage, title, body, &conversationID)
	return err
}

func (s *NotificationService) List(userID string, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.FindByUser(userID, limit, offset, unreadOnly)
}

// Unread returns the user's unread notifications, newest first, for the
// reconnect replay.
func (s *NotificationService) Unread(userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.FindByUser(userID, limit, 0, true)
}

func (s *NotificationService) find(userID, id string) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	if notification.UserID != userID {
		return nil, ErrNotOwner
	}
	return notification, nil
}

func (s *NotificationService) MarkRead(userID, id string) error {
	if _, err := s.find(userID, id); err != nil {
		return err
	}
	return s.notificationRepo.MarkAsRead(id)
}

func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	return s.notificationRepo.MarkAllAsRead(userID)
}

func (s *NotificationService) Delete(userID, id string) error {
	if _, err := s.find(userID, id); err != nil {
		return err
	}
	return s.notificationRepo.Delete(id)
}

func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkManyRead marks a batch of notification ids read for the reconnect
// sync. Ids that do not belong to the user are skipped and logged.
func (s *NotificationService) MarkManyRead(userID string, ids []string) int {
	marked := 0
	for _, id := range ids {
		if err := s.MarkRead(userID, id); err != nil {
			log.Printf("notifications sync: mark %s read: %v", id, err)
			continue
		}
		marked++
	}
	return marked
}
