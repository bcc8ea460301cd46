// Package repository defines the persistence contracts the auth core depends
// on. Implementations live under internal/infrastructure.
package repository

import (
	"context"

	"github.com/tidecat/tidecat/internal/domain/models"
)

// UserRepository is the catalog user store. Absence is not an error: lookups
// return (nil, nil) when no record exists.
type UserRepository interface {
	// FindByEmail returns the user with the given email, or nil if absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Create provisions a new user record.
	Create(ctx context.Context, create *models.CreateUser) (*models.User, error)
}
