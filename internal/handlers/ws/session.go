package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/service"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/validation"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 90 * time.Second
	pingInterval = 30 * time.Second

	missedMessageLimit      = 100
	missedNotificationLimit = 50

	// seenLimit bounds the per-session duplicate-suppression set.
	seenLimit = 1024
)

// ChatStore is the slice of the chat service a session needs.
type ChatStore interface {
	FindConversation(id string) (*models.Conversation, error)
	ConversationsForUser(userID string) ([]models.Conversation, error)
	SendMessage(senderID, senderName, conversationID, recipientID, text string, attachments []string) (*models.Message, *models.Conversation, error)
	EditMessage(userID, messageID, newText string) (*models.Message, error)
	DeleteMessage(userID, messageID string) (*models.Message, error)
	MarkMessagesRead(conversationID, readerID string, messageIDs []string) (int64, error)
	MissedMessages(conversationID string, after time.Time, limit int) ([]models.Message, error)
}

// NotificationStore is the slice of the notification service a session
// needs for replay and the sync event.
type NotificationStore interface {
	Unread(userID string, limit int) ([]models.Notification, error)
	List(userID string, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkManyRead(userID string, ids []string) int
}

// Directory resolves users for display names and the last-seen fallback.
type Directory interface {
	FindUser(id string) (*models.User, error)
	DisplayName(id string) string
	TouchLastSeen(id string)
}

// PresenceTracker mirrors session liveness into shared state.
// cache.PresenceCache satisfies it.
type PresenceTracker interface {
	Online(userID string) error
	Offline(userID string) error
	Refresh(userID string) error
}

// TokenVerifier turns a bearer token into a user id. auth.JWTVerifier
// satisfies it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Transport is the subset of *websocket.Conn a session drives, pulled out
// so tests can run a session against an in-memory connection.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type sessionState int

const (
	statePending sessionState = iota
	stateAuthenticated
	stateClosed
)

// Session owns one WebSocket connection for its whole life: authenticate,
// join groups, serve the event loop, clean up. Run is the only entry
// point; Deliver is called by the hub from other goroutines.
type Session struct {
	hub           *Hub
	chat          ChatStore
	notifications NotificationStore
	directory     Directory
	presence      PresenceTracker
	verifier      TokenVerifier
	conn          Transport

	// writeMu serializes frames; the hub and the read loop both write.
	writeMu sync.Mutex

	// mu guards everything below.
	mu          sync.Mutex
	state       sessionState
	userID      string
	target      string
	convID      string
	joinedConvs map[string]struct{}
	lastSeen    map[string]*time.Time
	seen        map[string]struct{}
	seenOrder   []string
}

func NewSession(
	hub *Hub,
	chat ChatStore,
	notifications NotificationStore,
	directory Directory,
	presence PresenceTracker,
	verifier TokenVerifier,
	conn Transport,
) *Session {
	return &Session{
		hub:           hub,
		chat:          chat,
		notifications: notifications,
		directory:     directory,
		presence:      presence,
		verifier:      verifier,
		conn:          conn,
		joinedConvs:   make(map[string]struct{}),
		lastSeen:      make(map[string]*time.Time),
		seen:          make(map[string]struct{}),
	}
}

// Run serves the connection until it closes. target is either a
// conversation id or the notifications sentinel. A non-empty token is
// authenticated immediately; otherwise the client gets one chance to send
// an authenticate frame first.
func (s *Session) Run(token, target string) {
	defer s.teardown()

	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		if userID := s.currentUserID(); userID != "" {
			s.presence.Refresh(userID)
		}
		return nil
	})
	go s.pingLoop()

	if target == "" {
		target = NotificationsTarget
	}

	if token != "" {
		if !s.authenticate(token, target) {
			return
		}
	} else {
		s.write(map[string]interface{}{"type": EventAuthRequired})
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(data, &event); err != nil || event.Type == "" {
			s.sendError(CodeValidation, "malformed event")
			continue
		}

		s.mu.Lock()
		authenticated := s.state == stateAuthenticated
		s.mu.Unlock()

		if !authenticated {
			if event.Type != EventAuthenticate {
				s.sendError(CodeAuthRequired, "authenticate first")
				continue
			}
			if !s.authenticate(event.Token, target) {
				return
			}
			continue
		}

		s.dispatch(&event)
	}
}

// dispatch routes one authenticated frame. The switch is the complete
// event vocabulary; new events are added here or rejected.
func (s *Session) dispatch(event *ClientEvent) {
	switch event.Type {
	case EventAuthenticate:
		s.sendError(CodeValidation, "already authenticated")
	case EventSendMessage:
		s.handleSendMessage(event)
	case EventTyping:
		s.handleTyping(event)
	case EventReadReceipt:
		s.handleReadReceipt(event)
	case EventReconnect:
		s.handleReconnect(event)
	case EventGetMissedMessages:
		s.handleGetMissedMessages(event)
	case EventNotificationsSync:
		s.handleNotificationsSync(event)
	case EventEditMessage:
		s.handleEditMessage(event)
	case EventDeleteMessage:
		s.handleDeleteMessage(event)
	case EventPing:
		s.presence.Refresh(s.currentUserID())
		s.write(map[string]interface{}{"type": EventPong})
	default:
		s.sendError(CodeUnknownEvent, "unknown event type: "+event.Type)
	}
}

// authenticate verifies the token, validates the target, joins groups,
// announces presence, and replays what the client missed. On failure the
// connection is closed with an application close code and false is
// returned.
func (s *Session) authenticate(token, target string) bool {
	userID, err := s.verifier.Verify(token)
	if err != nil {
		s.sendError(CodeAuthFailed, "authentication failed")
		s.close(CloseUnauthorized, "unauthorized")
		return false
	}

	convID := ""
	if target != NotificationsTarget {
		conv, err := s.chat.FindConversation(target)
		if err != nil {
			if errors.Is(err, service.ErrConversationNotFound) {
				s.sendError(CodeNotFound, "conversation not found")
			} else {
				s.sendError(CodeInternal, "")
			}
			s.close(CloseForbidden, "forbidden")
			return false
		}
		if !conv.HasParticipant(userID) {
			s.sendError(CodeForbidden, "not a participant of this conversation")
			s.close(CloseForbidden, "forbidden")
			return false
		}
		convID = conv.ID
	}

	s.mu.Lock()
	s.state = stateAuthenticated
	s.userID = userID
	s.target = target
	s.convID = convID
	s.mu.Unlock()

	s.hub.Join(NotificationGroup(userID), s)
	if convID != "" {
		s.joinConversation(convID)
	}

	if err := s.presence.Online(userID); err != nil {
		log.Printf("presence online %s: %v", userID, err)
	}
	if convID != "" {
		s.broadcastPresence(convID, "online")
	}

	replayed, err := s.reconcile(nil)
	if err != nil {
		log.Printf("reconcile for %s: %v", userID, err)
	}
	s.replayUnreadNotifications()

	authPayload := map[string]interface{}{
		"type":    EventAuthenticated,
		"user_id": userID,
	}
	if convID != "" {
		authPayload["conversation_id"] = convID
	}
	if replayed > 0 {
		authPayload["replayed"] = replayed
	}
	s.write(authPayload)
	return true
}

// reconcile joins every conversation group the user belongs to and replays
// the messages each conversation accumulated past the session's cutoff.
// The cutoff chain per conversation: an explicit client value, then what
// this session has already observed, then the conversation's last-message
// timestamp, then the user's stored last-seen instant.
func (s *Session) reconcile(explicit *time.Time) (int, error) {
	userID := s.currentUserID()
	conversations, err := s.chat.ConversationsForUser(userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range conversations {
		conv := &conversations[i]
		s.joinConversation(conv.ID)

		after := s.cutoffFor(conv, explicit)
		if after == nil {
			continue
		}
		replayed, err := s.replayConversation(conv.ID, *after, missedMessageLimit)
		if err != nil {
			log.Printf("replay %s for %s: %v", conv.ID, userID, err)
			continue
		}
		total += replayed
	}
	return total, nil
}

func (s *Session) cutoffFor(conv *models.Conversation, explicit *time.Time) *time.Time {
	if explicit != nil {
		return explicit
	}
	s.mu.Lock()
	observed := s.lastSeen[conv.ID]
	userID := s.userID
	s.mu.Unlock()
	if observed != nil {
		return observed
	}
	if conv.LastMessageAt != nil {
		return conv.LastMessageAt
	}
	if user, err := s.directory.FindUser(userID); err == nil {
		return user.LastSeen
	}
	return nil
}

// joinConversation joins the conversation's group once and remembers the
// membership for presence fan-out on disconnect.
func (s *Session) joinConversation(convID string) {
	s.mu.Lock()
	if _, already := s.joinedConvs[convID]; already {
		s.mu.Unlock()
		return
	}
	s.joinedConvs[convID] = struct{}{}
	s.mu.Unlock()
	s.hub.Join(ConversationGroup(convID), s)
}

func (s *Session) joinedConversations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.joinedConvs))
	for id := range s.joinedConvs {
		out = append(out, id)
	}
	return out
}

func (s *Session) broadcastPresence(convID, status string) {
	userID := s.currentUserID()
	s.hub.Broadcast(ConversationGroup(convID), GroupEvent{
		Kind:     KindPresence,
		SenderID: userID,
		Payload: map[string]interface{}{
			"type":    EventPresence,
			"user_id": userID,
			"status":  status,
		},
	})
}

func (s *Session) handleSendMessage(event *ClientEvent) {
	attachments, err := event.ParseAttachments()
	if err != nil {
		s.sendError(CodeValidation, err.Error())
		return
	}

	convID := event.ConversationID
	if convID == "" {
		convID = s.conversationID()
	}

	userID := s.currentUserID()
	senderName := s.directory.DisplayName(userID)
	message, conv, err := s.chat.SendMessage(userID, senderName, convID, event.RecipientID, event.Text, attachments)
	if err != nil {
		s.sendServiceError(err)
		return
	}

	s.joinConversation(conv.ID)
	s.markSeen(message.ID, conv.ID, message.Timestamp)
	s.write(map[string]interface{}{
		"type":    EventMessageSent,
		"message": message.ToResponse(),
	})

	s.hub.Broadcast(ConversationGroup(conv.ID), GroupEvent{
		Kind:      KindChatMessage,
		SenderID:  userID,
		MessageID: message.ID,
		Payload: map[string]interface{}{
			"type":    EventMessage,
			"message": message.ToResponse(),
		},
	})
}

func (s *Session) handleTyping(event *ClientEvent) {
	convID := event.ConversationID
	if convID == "" {
		convID = s.conversationID()
	}
	if convID == "" {
		s.sendError(CodeValidation, "typing requires a conversation")
		return
	}

	typing := event.IsTyping == nil || *event.IsTyping
	s.hub.Broadcast(ConversationGroup(convID), GroupEvent{
		Kind:     KindTyping,
		SenderID: s.currentUserID(),
		Payload: map[string]interface{}{
			"type":            EventTyping,
			"conversation_id": convID,
			"user_id":         s.currentUserID(),
			"is_typing":       typing,
		},
	})
}

func (s *Session) handleReadReceipt(event *ClientEvent) {
	convID := event.ConversationID
	if convID == "" {
		convID = s.conversationID()
	}
	if convID == "" {
		s.sendError(CodeValidation, "read receipt requires a conversation")
		return
	}

	userID := s.currentUserID()
	count, err := s.chat.MarkMessagesRead(convID, userID, event.MessageIDs)
	if err != nil {
		s.sendServiceError(err)
		return
	}

	s.write(map[string]interface{}{
		"type":  EventReadReceiptSent,
		"count": count,
	})
	s.hub.Broadcast(ConversationGroup(convID), GroupEvent{
		Kind:     KindReadReceipt,
		SenderID: userID,
		Payload: map[string]interface{}{
			"type":            EventReadReceipt,
			"conversation_id": convID,
			"reader_id":       userID,
			"count":           count,
		},
	})
}

func (s *Session) handleReconnect(event *ClientEvent) {
	explicit, err := parseLastSeen(event.LastSeen)
	if err != nil {
		s.sendError(CodeValidation, "last_seen must be RFC 3339")
		return
	}

	replayed, err := s.reconcile(explicit)
	if err != nil {
		s.sendError(CodeReconnectFailed, "could not replay missed messages")
		return
	}
	s.replayUnreadNotifications()

	s.write(map[string]interface{}{
		"type":     EventReconnected,
		"replayed": replayed,
	})
}

func (s *Session) handleGetMissedMessages(event *ClientEvent) {
	convID := event.ConversationID
	if convID == "" {
		convID = s.conversationID()
	}
	if convID == "" {
		s.sendError(CodeValidation, "missed messages require a conversation")
		return
	}

	conv, err := s.chat.FindConversation(convID)
	if err != nil {
		s.sendServiceError(err)
		return
	}
	if !conv.HasParticipant(s.currentUserID()) {
		s.sendError(CodeForbidden, "not a participant of this conversation")
		return
	}

	explicit, err := parseLastSeen(event.LastSeen)
	if err != nil {
		s.sendError(CodeValidation, "last_seen must be RFC 3339")
		return
	}
	after := s.cutoffFor(conv, explicit)
	if after == nil {
		s.write(map[string]interface{}{"type": EventMissedMessages, "count": 0})
		return
	}

	limit := event.Limit
	if limit <= 0 || limit > missedMessageLimit {
		limit = missedMessageLimit
	}
	count, err := s.replayConversation(convID, *after, limit)
	if err != nil {
		s.sendError(CodeInternal, "")
		return
	}
	s.write(map[string]interface{}{"type": EventMissedMessages, "count": count})
}

// handleNotificationsSync re-emits the caller's notifications. Read state
// is only mutated for ids the client explicitly acknowledges.
func (s *Session) handleNotificationsSync(event *ClientEvent) {
	userID := s.currentUserID()

	marked := 0
	if len(event.ReadIDs) > 0 {
		marked = s.notifications.MarkManyRead(userID, event.ReadIDs)
	}

	unreadOnly := event.UnreadOnly == nil || *event.UnreadOnly
	limit := event.Limit
	if limit <= 0 || limit > missedNotificationLimit {
		limit = missedNotificationLimit
	}
	notifications, err := s.notifications.List(userID, limit, 0, unreadOnly)
	if err != nil {
		s.sendError(CodeInternal, "")
		return
	}

	payload := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		payload = append(payload, notifications[i].ToResponse())
	}
	s.write(map[string]interface{}{
		"type":          EventNotificationsSync,
		"notifications": payload,
		"count":         len(payload),
		"marked":        marked,
	})
}

func (s *Session) handleEditMessage(event *ClientEvent) {
	if event.MessageID == "" {
		s.sendError(CodeValidation, "message_id is required")
		return
	}
	newText := event.NewText
	if newText == "" {
		newText = event.Text
	}

	message, err := s.chat.EditMessage(s.currentUserID(), event.MessageID, newText)
	if err != nil {
		s.sendServiceError(err)
		return
	}

	s.hub.Broadcast(ConversationGroup(message.ConversationID), GroupEvent{
		Kind:      KindMessageEdited,
		SenderID:  s.currentUserID(),
		MessageID: message.ID,
		Payload: map[string]interface{}{
			"type":    EventMessageEdited,
			"message": message.ToResponse(),
		},
	})
}

func (s *Session) handleDeleteMessage(event *ClientEvent) {
	if event.MessageID == "" {
		s.sendError(CodeValidation, "message_id is required")
		return
	}

	message, err := s.chat.DeleteMessage(s.currentUserID(), event.MessageID)
	if err != nil {
		s.sendServiceError(err)
		return
	}

	s.hub.Broadcast(ConversationGroup(message.ConversationID), GroupEvent{
		Kind:      KindMessageDeleted,
		SenderID:  s.currentUserID(),
		MessageID: message.ID,
		Payload: map[string]interface{}{
			"type":            EventMessageDeleted,
			"message_id":      message.ID,
			"conversation_id": message.ConversationID,
			"text":            models.DeletedMessageText,
		},
	})
}

// Deliver forwards a group event to this session's client. Live messages
// are suppressed for their own sender (who already holds message_sent) and
// deduplicated against the replay path; edits and deletions are forwarded
// to everyone, sender included, so every client converges on the same
// history.
func (s *Session) Deliver(event GroupEvent) {
	switch event.Kind {
	case KindChatMessage:
		// Dedup by id only. The sending session recorded the id before
		// broadcasting, and a second session of the same user still wants
		// the live frame.
		if !s.markSeen(event.MessageID, "", time.Time{}) {
			return
		}
	case KindTyping, KindReadReceipt, KindPresence:
		if event.SenderID == s.currentUserID() {
			return
		}
	case KindNotification, KindMessageEdited, KindMessageDeleted:
		// Forward unconditionally.
	default:
		return
	}
	s.write(event.Payload)
}

// replayConversation sends every message newer than after as a
// missed_message frame, oldest first, and records them as seen so the live
// broadcast of the same message is suppressed.
func (s *Session) replayConversation(convID string, after time.Time, limit int) (int, error) {
	messages, err := s.chat.MissedMessages(convID, after, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range messages {
		if !s.markSeen(messages[i].ID, convID, messages[i].Timestamp) {
			continue
		}
		s.write(map[string]interface{}{
			"type":    EventMissedMessage,
			"message": messages[i].ToResponse(),
		})
		sent++
	}
	return sent, nil
}

// replayUnreadNotifications sends the user's unread notifications in a
// single envelope, capped at missedNotificationLimit.
func (s *Session) replayUnreadNotifications() {
	userID := s.currentUserID()
	notifications, err := s.notifications.Unread(userID, missedNotificationLimit)
	if err != nil {
		log.Printf("replay notifications for %s: %v", userID, err)
		return
	}
	if len(notifications) == 0 {
		return
	}
	payload := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		payload = append(payload, notifications[i].ToResponse())
	}
	s.write(map[string]interface{}{
		"type":          EventMissedNotifications,
		"notifications": payload,
		"count":         len(payload),
	})
}

func parseLastSeen(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// markSeen records a message id for duplicate suppression and advances the
// conversation's observed cutoff. Returns false when the id was already
// seen. Activity in one conversation never moves another conversation's
// cutoff.
func (s *Session) markSeen(messageID, conversationID string, at time.Time) bool {
	if messageID == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[messageID]; dup {
		return false
	}
	s.seen[messageID] = struct{}{}
	s.seenOrder = append(s.seenOrder, messageID)
	if len(s.seenOrder) > seenLimit {
		oldest := s.seenOrder[0]
		s.seenOrder = s.seenOrder[1:]
		delete(s.seen, oldest)
	}
	if conversationID != "" && !at.IsZero() {
		if cur := s.lastSeen[conversationID]; cur == nil || at.After(*cur) {
			t := at
			s.lastSeen[conversationID] = &t
		}
	}
	return true
}

func (s *Session) conversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convID
}

func (s *Session) currentUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// sendServiceError maps service-layer failures onto wire error codes.
func (s *Session) sendServiceError(err error) {
	switch {
	case errors.Is(err, validation.ErrEmptyText),
		errors.Is(err, validation.ErrInvalidAttachment),
		errors.Is(err, service.ErrSameParticipant),
		errors.Is(err, service.ErrNoTarget):
		s.sendError(CodeValidation, err.Error())
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotSender):
		s.sendError(CodeForbidden, err.Error())
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		s.sendError(CodeNotFound, err.Error())
	default:
		log.Printf("session %s: %v", s.currentUserID(), err)
		s.sendError(CodeInternal, "")
	}
}

func (s *Session) sendError(code, message string) {
	if message == "" {
		message = "internal error"
	}
	s.write(map[string]interface{}{
		"type":  EventError,
		"code":  code,
		"error": message,
	})
}

func (s *Session) write(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal outbound frame: %v", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("write to %s: %v", s.currentUserID(), err)
	}
}

func (s *Session) close(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	s.writeMu.Unlock()
	s.conn.Close()
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		closed := s.state == stateClosed
		s.mu.Unlock()
		if closed {
			return
		}
		if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
			return
		}
	}
}

// teardown leaves every group, announces the session offline, and records
// last seen.
func (s *Session) teardown() {
	s.mu.Lock()
	wasAuthenticated := s.state == stateAuthenticated
	s.state = stateClosed
	userID := s.userID
	s.mu.Unlock()

	joined := s.joinedConversations()
	s.hub.LeaveAll(s)
	s.conn.Close()

	if !wasAuthenticated {
		return
	}
	if err := s.presence.Offline(userID); err != nil {
		log.Printf("presence offline %s: %v", userID, err)
	}
	for _, convID := range joined {
		s.broadcastPresence(convID, "offline")
	}
	s.directory.TouchLastSeen(userID)
}
