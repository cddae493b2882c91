package service

import (
	"errors"
	"log"

	"github.com/mohammadHusnain/SKILLSWAPP/internal/models"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/repository"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// UserService is the thin directory this subsystem keeps over users.
// Account management lives elsewhere; here we only resolve display names
// and track last-seen instants for the reconnect fallback chain.
type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) FindUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DisplayName resolves a user's name for notification titles, falling back
// to a neutral placeholder when the user cannot be resolved.
func (s *UserService) DisplayName(id string) string {
	user, err := s.FindUser(id)
	if err != nil || user.Name == "" {
		return "Someone"
	}
	return user.Name
}

// TouchLastSeen records the moment a user's session disconnects. Best
// effort: last seen only feeds the reconnect fallback.
func (s *UserService) TouchLastSeen(id string) {
	if err := s.userRepo.UpdateLastSeen(id); err != nil {
		log.Printf("touch last seen %s: %v", id, err)
	}
}
