// Package gormrepo provides the gorm-backed persistence implementations.
package gormrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/domain/repository"
	pkgerrors "github.com/tidecat/tidecat/pkg/errors"
)

// UserRepository is the gorm implementation of repository.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a user repository backed by db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

// FindByEmail returns the user with the given email, or (nil, nil) if absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create provisions a new enabled user.
func (r *UserRepository) Create(ctx context.Context, create *models.CreateUser) (*models.User, error) {
	if strings.TrimSpace(create.Email) == "" {
		return nil, pkgerrors.InvalidRequest("user email is required")
	}

	user := &models.User{
		ID:         uuid.New(),
		Name:       create.Name,
		Email:      create.Email,
		ExternalID: create.ExternalID,
		State:      models.UserStateEnabled,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
