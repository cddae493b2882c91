package service

import (
	"fmt"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"gorm.io/gorm"
)

// In-memory repositories for service tests. They mimic the database hooks
// the real repositories rely on: ids and timestamps get filled in on
// create.

type memConversationRepo struct {
	conversations map[string]*models.Conversation
	nextID        int
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{conversations: make(map[string]*models.Conversation)}
}

func (r *memConversationRepo) GetOrCreate(participantA, participantB string) (*models.Conversation, error) {
	a, b := models.CanonicalPair(participantA, participantB)
	for _, conv := range r.conversations {
		if conv.ParticipantA == a && conv.ParticipantB == b {
			return conv, nil
		}
	}
	r.nextID++
	conv := &models.Conversation{
		ID:           fmt.Sprintf("conv-%d", r.nextID),
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.conversations[conv.ID] = conv
	return conv, nil
}

func (r *memConversationRepo) FindByID(id string) (*models.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (r *memConversationRepo) FindForUser(userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *memConversationRepo) UpdateLastMessage(id string, text string, timestamp *time.Time) error {
	conv, ok := r.conversations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conv.LastMessage = text
	conv.LastMessageAt = timestamp
	conv.UpdatedAt = time.Now()
	return nil
}

func (r *memConversationRepo) IncrementUnread(id string, userID string) error {
	conv, ok := r.conversations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch userID {
	case conv.ParticipantA:
		conv.UnreadA++
	case conv.ParticipantB:
		conv.UnreadB++
	}
	return nil
}

func (r *memConversationRepo) ResetUnread(id string, userID string) error {
	conv, ok := r.conversations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch userID {
	case conv.ParticipantA:
		conv.UnreadA = 0
	case conv.ParticipantB:
		conv.UnreadB = 0
	}
	return nil
}

type memMessageRepo struct {
	messages []*models.Message
	nextID   int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (r *memMessageRepo) Create(message *models.Message) error {
	r.nextID++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", r.nextID)
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *memMessageRepo) FindByID(id string) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMessageRepo) FindByConversation(conversationID string, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ConversationID == conversationID {
			out = append(out, *r.messages[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) FindAfter(conversationID string, after time.Time, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.Timestamp.After(after) {
			out = append(out, *m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMessageRepo) FindLatestVisible(conversationID string) (*models.Message, error) {
	var latest *models.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.IsDeleted {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *memMessageRepo) Update(message *models.Message) error {
	for i, m := range r.messages {
		if m.ID == message.ID {
			copied := *message
			r.messages[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memMessageRepo) MarkAsRead(messageID string) error {
	now := time.Now().UTC()
	for _, m := range r.messages {
		if m.ID == messageID {
			m.IsRead = true
			m.ReadAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memMessageRepo) MarkConversationAsRead(conversationID, readerID string) (int64, error) {
	now := time.Now().UTC()
	var count int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &now
			count++
		}
	}
	return count, nil
}

type memNotificationRepo struct {
	notifications []*models.Notification
	nextID        int
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (r *memNotificationRepo) Create(notification *models.Notification) error {
	r.nextID++
	if notification.ID == "" {
		notification.ID = fmt.Sprintf("notif-%d", r.nextID)
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	copied := *notification
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *memNotificationRepo) FindByID(id string) (*models.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memNotificationRepo) FindByUser(userID string, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotificationRepo) MarkAsRead(id string) error {
	now := time.Now().UTC()
	for _, n := range r.notifications {
		if n.ID == id {
			n.IsRead = true
			n.ReadAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memNotificationRepo) MarkAllAsRead(userID string) (int64, error) {
	now := time.Now().UTC()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) Delete(id string) error {
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memNotificationRepo) CountUnread(userID string) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memUserRepo) UpdateLastSeen(id string) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now().UTC()
	user.LastSeen = &now
	return nil
}

// recordingNotifier captures NotifyNewMessage calls from the chat service.
type recordingNotifier struct {
	calls []notifyCall
}

type notifyCall struct {
	recipientID    string
	senderID       string
	senderName     string
	text           string
	conversationID string
}

func (n *recordingNotifier) NotifyNewMessage(recipientID, senderID, senderName, text, conversationID string) error {
	n.calls = append(n.calls, notifyCall{recipientID, senderID, senderName, text, conversationID})
	return nil
}

// recordingPusher captures Push calls from the notification service.
type recordingPusher struct {
	pushed []*models.Notification
	users  []string
}

func (p *recordingPusher) Push(userID string, notification *models.Notification) {
	p.users = append(p.users, userID)
	p.pushed = append(p.pushed, notification)
}
