package services

import (
	"context"
	"strings"

	"opsboard/internal/models"

	"gorm.io/gorm"
)

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (models.User, error)
	CreateUser(ctx context.Context, name string) (models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type UserServiceImpl struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserServiceImpl {
	return &UserServiceImpl{db: db}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, fromStore(err, "users")
	}
	return users, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, fromStore(err, "user")
	}
	return user, nil
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, invalidInput("name is required")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return models.User{}, fromStore(err, "user")
	}
	if count > 0 {
		return models.User{}, invalidInput("user already exists")
	}

	user := models.User{Name: name}
	if err := db.Create(&user).Error; err != nil {
		return models.User{}, fromStore(err, "user")
	}
	return user, nil
}

// DeleteUser keeps the user's tasks and history; their creator and actor
// references become NULL.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fromStore(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}
