package testutil

import (
	"testing"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"gorm.io/gorm"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id, name string) *models.User {
	if id == "" {
		id = "11111111-1111-1111-1111-111111111111"
	}
	if name == "" {
		name = "Test User"
	}
	return &models.User{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestConversation creates a conversation between two users with the
// participants already in canonical order.
func (h *TestHelper) CreateTestConversation(id, userA, userB string) *models.Conversation {
	if id == "" {
		id = "cccccccc-cccc-cccc-cccc-cccccccccccc"
	}
	a, b := models.CanonicalPair(userA, userB)
	return &models.Conversation{
		ID:           id,
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// CreateTestMessage creates a test message with default values
func (h *TestHelper) CreateTestMessage(id, conversationID, senderID, text string) *models.Message {
	if id == "" {
		id = "mmmmmmmm-mmmm-mmmm-mmmm-mmmmmmmmmmmm"
	}
	if text == "" {
		text = "Test message"
	}
	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		Attachments:    []string{},
		Timestamp:      time.Now().UTC(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// CreateTestNotification creates a notification with default values
func (h *TestHelper) CreateTestNotification(id, userID string, ntype models.NotificationType) *models.Notification {
	if id == "" {
		id = "nnnnnnnn-nnnn-nnnn-nnnn-nnnnnnnnnnnn"
	}
	if ntype == "" {
		ntype = models.NotificationNewMessage
	}
	return &models.Notification{
		ID:        id,
		UserID:    userID,
		Type:      ntype,
		Title:     "Test notification",
		Body:      "Test body",
		CreatedAt: time.Now(),
	}
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// GetRecordNotFoundError returns the error repositories surface for a
// missing row.
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
