package services

import (
	"errors"
	"fmt"

	"tasktrack/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	ListUsers(db *gorm.DB) ([]models.User, error)
	GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

// ListUsers returns the user directory used by assignee pickers. Password
// hashes never leave the model's json marshalling, but the query does not
// select them either.
func (s *UserServiceImpl) ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.
		Select("id", "username", "email", "role", "created_at").
		Order("username ASC").
		Find(&users).Error
	return users, err
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}
