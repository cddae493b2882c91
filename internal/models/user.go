package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the narrow slice of the user record this subsystem needs: a display
// name for notification text and a last-seen marker used as the reconnect
// fallback when a conversation has no session-local watermark. Account and
// profile management live in another subsystem.
type User struct {
	ID       string     `gorm:"type:uuid;primarykey" json:"id"`
	Name     string     `gorm:"type:varchar(120);not null" json:"name"`
	LastSeen *time.Time `json:"last_seen"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
