package ws

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/service"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/validation"
)

// fakeConn is an in-memory Transport. Inbound frames are fed through a
// channel; outbound frames are decoded and collected.
type fakeConn struct {
	inbound chan []byte

	mu       sync.Mutex
	frames   []map[string]interface{}
	closeSeq []int
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-c.inbound
	if !ok {
		return 0, nil, io.EOF
	}
	return websocket.TextMessage, data, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	var frame map[string]interface{}
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed connection")
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	if messageType == websocket.CloseMessage && len(data) >= 2 {
		c.mu.Lock()
		c.closeSeq = append(c.closeSeq, int(binary.BigEndian.Uint16(data[:2])))
		c.mu.Unlock()
	}
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error   { return nil }
func (c *fakeConn) SetPongHandler(h func(string) error) {}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) send(t *testing.T, event map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal inbound frame: %v", err)
	}
	c.inbound <- data
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) framesOfType(eventType string) []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]interface{}
	for _, f := range c.frames {
		if f["type"] == eventType {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) closeCodes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.closeSeq...)
}

// waitUntil polls cond for up to two seconds.
func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeChat implements ChatStore over in-memory state.
type fakeChat struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      map[string]*models.Message
	missed        []models.Message
	nextID        int
	readCount     int64
}

func newFakeChat(conversations ...*models.Conversation) *fakeChat {
	f := &fakeChat{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string]*models.Message),
		readCount:     2,
	}
	for _, conv := range conversations {
		f.conversations[conv.ID] = conv
	}
	return f
}

func (f *fakeChat) FindConversation(id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return nil, service.ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeChat) SendMessage(senderID, senderName, conversationID, recipientID, text string, attachments []string) (*models.Message, *models.Conversation, error) {
	text, err := validation.MessageText(text)
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, nil, service.ErrConversationNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, nil, service.ErrNotParticipant
	}

	f.nextID++
	message := &models.Message{
		ID:             fmt.Sprintf("msg-%d", f.nextID),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		Attachments:    attachments,
		Timestamp:      time.Now().UTC(),
	}
	f.messages[message.ID] = message
	return message, conv, nil
}

func (f *fakeChat) EditMessage(userID, messageID, newText string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[messageID]
	if !ok {
		return nil, service.ErrMessageNotFound
	}
	if message.SenderID != userID {
		return nil, service.ErrNotSender
	}
	message.Text = newText
	message.IsEdited = true
	return message, nil
}

func (f *fakeChat) DeleteMessage(userID, messageID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	message, ok := f.messages[messageID]
	if !ok {
		return nil, service.ErrMessageNotFound
	}
	if message.SenderID != userID {
		return nil, service.ErrNotSender
	}
	message.Tombstone(time.Now().UTC())
	return message, nil
}

func (f *fakeChat) MarkMessagesRead(conversationID, readerID string, messageIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conversations[conversationID]; !ok {
		return 0, service.ErrConversationNotFound
	}
	if len(messageIDs) == 0 {
		return f.readCount, nil
	}
	var count int64
	for _, id := range messageIDs {
		if message, ok := f.messages[id]; ok && message.SenderID != readerID && !message.IsRead {
			message.IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeChat) ConversationsForUser(userID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, conv := range f.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeChat) MissedMessages(conversationID string, after time.Time, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.missed {
		if m.ConversationID == conversationID && m.Timestamp.After(after) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeNotifications struct {
	mu     sync.Mutex
	unread []models.Notification
	known  map[string]bool
}

func newFakeNotifications(unread ...models.Notification) *fakeNotifications {
	known := make(map[string]bool)
	for _, n := range unread {
		known[n.ID] = true
	}
	return &fakeNotifications{unread: unread, known: known}
}

func (f *fakeNotifications) Unread(userID string, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.unread {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) List(userID string, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	return f.Unread(userID, limit)
}

func (f *fakeNotifications) MarkManyRead(userID string, ids []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	marked := 0
	for _, id := range ids {
		if f.known[id] {
			marked++
		}
	}
	return marked
}

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*models.User
	touched []string
}

func newFakeDirectory(users ...*models.User) *fakeDirectory {
	f := &fakeDirectory{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeDirectory) FindUser(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeDirectory) DisplayName(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok && user.Name != "" {
		return user.Name
	}
	return "Someone"
}

func (f *fakeDirectory) TouchLastSeen(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
}

func (f *fakeDirectory) touchedUsers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.touched...)
}

type fakePresence struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePresence) record(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePresence) Online(userID string) error  { return f.record("online:" + userID) }
func (f *fakePresence) Offline(userID string) error { return f.record("offline:" + userID) }
func (f *fakePresence) Refresh(userID string) error { return f.record("refresh:" + userID) }

func (f *fakePresence) has(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}

type fakeVerifier struct {
	tokens map[string]string
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if userID, ok := f.tokens[token]; ok {
		return userID, nil
	}
	return "", errors.New("invalid token")
}
