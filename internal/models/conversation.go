package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a two-party message thread. The participant pair is stored
// canonically (smaller ID in ParticipantA) so that lookup is independent of
// call order, and a unique index on the pair guarantees one conversation per
// pair.
type Conversation struct {
	ID           string `gorm:"type:uuid;primarykey" json:"id"`
	ParticipantA string `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"participant_a"`
	ParticipantB string `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"participant_b"`

	LastMessage   string     `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_timestamp"`

	// Unread counters for the canonical participant slots. These are a
	// convenience signal for clients; missed-message recovery is driven by
	// message timestamps, not by these counters.
	UnreadA int64 `gorm:"not null;default:0" json:"-"`
	UnreadB int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanonicalPair orders two participant IDs so (a,b) and (b,a) map to the same
// storage slots.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.ParticipantA || userID == c.ParticipantB)
}

// OtherParticipant returns the peer of the given participant, or "" when the
// given user is not part of the conversation.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	default:
		return ""
	}
}

func (c *Conversation) UnreadFor(userID string) int64 {
	switch userID {
	case c.ParticipantA:
		return c.UnreadA
	case c.ParticipantB:
		return c.UnreadB
	default:
		return 0
	}
}

func (c *Conversation) UnreadCounts() map[string]int64 {
	return map[string]int64{
		c.ParticipantA: c.UnreadA,
		c.ParticipantB: c.UnreadB,
	}
}

type ConversationResponse struct {
	ID            string           `json:"id"`
	Participants  []string         `json:"participants"`
	LastMessage   string           `json:"last_message"`
	LastMessageAt *time.Time       `json:"last_message_timestamp"`
	UnreadCounts  map[string]int64 `json:"unread_counts"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (c *Conversation) ToResponse() ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		Participants:  c.Participants(),
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCounts:  c.UnreadCounts(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
