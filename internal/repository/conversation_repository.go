package repository

import (
	"errors"
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"gorm.io/gorm"
)

// ErrNotAParticipant is returned when an unread-counter mutation names a user
// outside the conversation.
var ErrNotAParticipant = errors.New("user is not a participant in the conversation")

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetOrCreate returns the conversation for the unordered participant pair,
// creating it when absent. The pair is canonicalized before lookup so call
// order never produces two records, and the unique pair index resolves a
// concurrent create race: the loser re-reads the winner's row.
func (r *ConversationRepository) GetOrCreate(participantA, participantB string) (*models.Conversation, error) {
	a, b := models.CanonicalPair(participantA, participantB)

	var conv models.Conversation
	err := r.db.Where("participant_a = ? AND participant_b = ?", a, b).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{ParticipantA: a, ParticipantB: b}
	if createErr := r.db.Create(&conv).Error; createErr != nil {
		// Likely lost a create race on the unique pair index.
		var existing models.Conversation
		if err := r.db.Where("participant_a = ? AND participant_b = ?", a, b).First(&existing).Error; err == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conv, nil
}

func (r *ConversationRepository) FindByID(id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) FindForUser(userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// UpdateLastMessage sets the denormalized last-message display fields. A nil
// timestamp clears them (every message in the conversation was deleted).
func (r *ConversationRepository) UpdateLastMessage(id string, text string, timestamp *time.Time) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message":    text,
			"last_message_at": timestamp,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *ConversationRepository) IncrementUnread(id string, userID string) error {
	column, err := r.unreadColumn(id, userID)
	if err != nil {
		return err
	}
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (r *ConversationRepository) ResetUnread(id string, userID string) error {
	column, err := r.unreadColumn(id, userID)
	if err != nil {
		return err
	}
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).
		UpdateColumn(column, 0).Error
}

func (r *ConversationRepository) unreadColumn(id string, userID string) (string, error) {
	conv, err := r.FindByID(id)
	if err != nil {
		return "", err
	}
	switch userID {
	case conv.ParticipantA:
		return "unread_a", nil
	case conv.ParticipantB:
		return "unread_b", nil
	default:
		return "", ErrNotAParticipant
	}
}
