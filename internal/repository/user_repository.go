package repository

import (
	"time"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastSeen(id string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("last_seen", time.Now().UTC()).Error
}
