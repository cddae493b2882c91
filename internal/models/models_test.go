package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("user-b", "user-a")
	if a != "user-a" || b != "user-b" {
		t.Errorf("CanonicalPair(b, a) = (%q, %q), want (user-a, user-b)", a, b)
	}

	a2, b2 := CanonicalPair("user-a", "user-b")
	if a2 != a || b2 != b {
		t.Errorf("CanonicalPair is order-dependent: (%q, %q) vs (%q, %q)", a, b, a2, b2)
	}
}

func TestConversationParticipants(t *testing.T) {
	conv := &Conversation{ParticipantA: "user-a", ParticipantB: "user-b"}

	if !conv.HasParticipant("user-a") || !conv.HasParticipant("user-b") {
		t.Error("HasParticipant rejects actual participants")
	}
	if conv.HasParticipant("user-c") {
		t.Error("HasParticipant accepts a stranger")
	}
	if conv.HasParticipant("") {
		t.Error("HasParticipant accepts an empty id")
	}

	if got := conv.OtherParticipant("user-a"); got != "user-b" {
		t.Errorf("OtherParticipant(user-a) = %q, want user-b", got)
	}
	if got := conv.OtherParticipant("user-c"); got != "" {
		t.Errorf("OtherParticipant(stranger) = %q, want empty", got)
	}
}

func TestConversationUnreadCounts(t *testing.T) {
	conv := &Conversation{
		ParticipantA: "user-a",
		ParticipantB: "user-b",
		UnreadA:      3,
		UnreadB:      1,
	}

	if got := conv.UnreadFor("user-a"); got != 3 {
		t.Errorf("UnreadFor(user-a) = %d, want 3", got)
	}
	if got := conv.UnreadFor("user-b"); got != 1 {
		t.Errorf("UnreadFor(user-b) = %d, want 1", got)
	}
	if got := conv.UnreadFor("user-c"); got != 0 {
		t.Errorf("UnreadFor(stranger) = %d, want 0", got)
	}

	counts := conv.UnreadCounts()
	if counts["user-a"] != 3 || counts["user-b"] != 1 {
		t.Errorf("UnreadCounts = %v", counts)
	}
}

func TestMessageTombstone(t *testing.T) {
	now := time.Now().UTC()
	msg := &Message{
		Text:        "secret text",
		Attachments: []string{"attachments/u/file.png"},
		Timestamp:   now.Add(-time.Minute),
	}

	msg.Tombstone(now)

	if msg.Text != DeletedMessageText {
		t.Errorf("Tombstone text = %q, want %q", msg.Text, DeletedMessageText)
	}
	if len(msg.Attachments) != 0 {
		t.Errorf("Tombstone kept attachments: %v", msg.Attachments)
	}
	if !msg.IsDeleted {
		t.Error("Tombstone did not set IsDeleted")
	}
	if msg.DeletedAt == nil || !msg.DeletedAt.Equal(now) {
		t.Errorf("Tombstone DeletedAt = %v, want %v", msg.DeletedAt, now)
	}
	if !msg.Timestamp.Equal(now.Add(-time.Minute)) {
		t.Error("Tombstone must not move the message timestamp")
	}
}

func TestMessageResponseAttachmentsNeverNull(t *testing.T) {
	msg := &Message{ID: "m1", Attachments: nil}

	data, err := json.Marshal(msg.ToResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["attachments"].([]interface{}); !ok {
		t.Errorf("attachments marshaled as %T, want JSON array", decoded["attachments"])
	}
}

func TestNotificationTypeValid(t *testing.T) {
	valid := []NotificationType{
		NotificationNewMessage,
		NotificationPaymentSuccess,
		NotificationPaymentReceived,
		NotificationSubscriptionUpdated,
		NotificationSessionRequest,
		NotificationSessionAccept,
		NotificationSessionReject,
	}
	for _, ntype := range valid {
		if !ntype.Valid() {
			t.Errorf("%q should be valid", ntype)
		}
	}

	for _, ntype := range []NotificationType{"", "unknown", "NEW_MESSAGE"} {
		if ntype.Valid() {
			t.Errorf("%q should be invalid", ntype)
		}
	}
}
