package service

import (
	"errors"
	"log"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/cache"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/repository"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrNotSender            = errors.New("only the sender can modify this message")
	ErrSameParticipant      = errors.New("a conversation needs two distinct participants")
	ErrNoTarget             = errors.New("either a conversation or a recipient must be given")
)

// NotificationSender is how the chat service reaches the notification
// pipeline without depending on it. Failures after the message is persisted
// are logged, never surfaced to the sender.
type NotificationSender interface {
	NotifyNewMessage(recipientID, senderID, senderName, text, conversationID string) error
}

type ChatService struct {
	conversationRepo repository.ConversationRepositoryInterface
	messageRepo      repository.MessageRepositoryInterface
	messageCache     *cache.MessageCache
	notifier         NotificationSender
}

func NewChatService(
	conversationRepo repository.ConversationRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	messageCache *cache.MessageCache,
) *ChatService {
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		messageCache:     messageCache,
	}
}

// SetNotifier wires the notification pipeline in after construction, which
// breaks the otherwise circular setup between the two services.
func (s *ChatService) SetNotifier(n NotificationSender) {
	s.notifier = n
}

func (s *ChatService) GetOrCreateConversation(userA, userB string) (*models.Conversation, error) {
	if userA == userB {
		return nil, ErrSameParticipant
	}
	return s.conversationRepo.GetOrCreate(userA, userB)
}

func (s *ChatService) FindConversation(id string) (*models.Conversation, error) {
	conv, err := s.conversationRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) FindMessage(id string) (*models.Message, error) {
	msg, err := s.messageRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) IsParticipant(conversationID, userID string) (bool, error) {
	conv, err := s.FindConversation(conversationID)
	if err != nil {
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

func (s *ChatService) ConversationsForUser(userID string) ([]models.Conversation, error) {
	return s.conversationRepo.FindForUser(userID)
}

// SendMessage persists a message and then runs the follow-up steps: update
// the conversation preview, bump the recipient's unread counter, and hand
// the recipient a notification. Only the initial persist can fail the call;
// everything after it is best effort, because the message already exists and
// a reconnecting client will recover it by timestamp.
func (s *ChatService) SendMessage(senderID, senderName, conversationID, recipientID, text string, attachments []string) (*models.Message, *models.Conversation, error) {
	text, err := validation.MessageText(text)
	if err != nil {
		return nil, nil, err
	}
	attachments, err = validation.Attachments(attachments)
	if err != nil {
		return nil, nil, err
	}

	var conv *models.Conversation
	switch {
	case conversationID != "":
		conv, err = s.FindConversation(conversationID)
		if err != nil {
			return nil, nil, err
		}
		if !conv.HasParticipant(senderID) {
			return nil, nil, ErrNotParticipant
		}
	case recipientID != "":
		conv, err = s.GetOrCreateConversation(senderID, recipientID)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, ErrNoTarget
	}

	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		Attachments:    attachments,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, nil, err
	}

	peerID := conv.OtherParticipant(senderID)
	ts := message.Timestamp
	if err := s.conversationRepo.UpdateLastMessage(conv.ID, text, &ts); err != nil {
		log.Printf("send: update last message for %s: %v", conv.ID, err)
	}
	if err := s.conversationRepo.IncrementUnread(conv.ID, peerID); err != nil {
		log.Printf("send: increment unread for %s: %v", conv.ID, err)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyNewMessage(peerID, senderID, senderName, text, conv.ID); err != nil {
			log.Printf("send: notify %s: %v", peerID, err)
		}
	}
	s.messageCache.InvalidateConversation(conv.ID)

	return message, conv, nil
}

// EditMessage replaces the text of a message the caller sent. Deleted
// messages cannot be edited.
func (s *ChatService) EditMessage(userID, messageID, newText string) (*models.Message, error) {
	newText, err := validation.MessageText(newText)
	if err != nil {
		return nil, err
	}

	message, err := s.FindMessage(messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, ErrNotSender
	}
	if message.IsDeleted {
		return nil, ErrMessageNotFound
	}

	now := time.Now().UTC()
	message.Text = newText
	message.IsEdited = true
	message.EditedAt = &now
	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}

	s.refreshConversationPreview(message.ConversationID)
	s.messageCache.InvalidateConversation(message.ConversationID)
	return message, nil
}

// DeleteMessage tombstones a message the caller sent. The row stays in
// place so history keeps its shape; only the text is blanked out.
func (s *ChatService) DeleteMessage(userID, messageID string) (*models.Message, error) {
	message, err := s.FindMessage(messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, ErrNotSender
	}
	if message.IsDeleted {
		return message, nil
	}

	message.Tombstone(time.Now().UTC())
	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}

	s.refreshConversationPreview(message.ConversationID)
	s.messageCache.InvalidateConversation(message.ConversationID)
	return message, nil
}

// refreshConversationPreview recomputes the conversation's last-message
// preview from the newest non-deleted message. Best effort: a stale preview
// is cosmetic.
func (s *ChatService) refreshConversationPreview(conversationID string) {
	latest, err := s.messageRepo.FindLatestVisible(conversationID)
	if err != nil {
		log.Printf("refresh preview for %s: %v", conversationID, err)
		return
	}
	if latest == nil {
		if err := s.conversationRepo.UpdateLastMessage(conversationID, "", nil); err != nil {
			log.Printf("refresh preview for %s: %v", conversationID, err)
		}
		return
	}
	ts := latest.Timestamp
	if err := s.conversationRepo.UpdateLastMessage(conversationID, latest.Text, &ts); err != nil {
		log.Printf("refresh preview for %s: %v", conversationID, err)
	}
}

// MarkMessagesRead acknowledges messages on behalf of the reader. With
// explicit ids exactly those messages are marked; without, everything the
// reader has not yet read in the conversation is. Either way the reader's
// unread counter is zeroed.
func (s *ChatService) MarkMessagesRead(conversationID, readerID string, messageIDs []string) (int64, error) {
	conv, err := s.FindConversation(conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.HasParticipant(readerID) {
		return 0, ErrNotParticipant
	}

	var count int64
	if len(messageIDs) > 0 {
		for _, id := range messageIDs {
			message, err := s.FindMessage(id)
			if err != nil {
				return count, err
			}
			if message.ConversationID != conv.ID || message.SenderID == readerID || message.IsRead {
				continue
			}
			if err := s.messageRepo.MarkAsRead(id); err != nil {
				return count, err
			}
			count++
		}
	} else {
		count, err = s.messageRepo.MarkConversationAsRead(conversationID, readerID)
		if err != nil {
			return 0, err
		}
	}

	if err := s.conversationRepo.ResetUnread(conversationID, readerID); err != nil {
		log.Printf("read: reset unread for %s: %v", conversationID, err)
	}
	s.messageCache.InvalidateConversation(conversationID)
	return count, nil
}

// MissedMessages returns messages strictly newer than the given instant,
// oldest first, capped at limit.
func (s *ChatService) MissedMessages(conversationID string, after time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.messageRepo.FindAfter(conversationID, after, limit)
}

// GetMessages pages through conversation history newest first. The first
// page is served from cache when possible.
func (s *ChatService) GetMessages(conversationID, userID string, limit, offset int) ([]models.Message, error) {
	conv, err := s.FindConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	firstPage := offset == 0 && limit == 50
	if firstPage {
		if cached, ok := s.messageCache.GetConversation(conversationID); ok {
			return cached, nil
		}
	}

	messages, err := s.messageRepo.FindByConversation(conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	if firstPage {
		if err := s.messageCache.SetConversation(conversationID, messages); err != nil {
			log.Printf("cache conversation %s: %v", conversationID, err)
		}
	}
	return messages, nil
}
