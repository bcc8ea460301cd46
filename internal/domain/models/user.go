// Package models defines the domain entities of the tidecat auth core.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserState is the lifecycle state of a catalog user.
type UserState string

const (
	UserStateEnabled  UserState = "ENABLED"
	UserStateDisabled UserState = "DISABLED"
)

// User is a catalog user record. External identities are provisioned at most
// once, keyed by email with the provider object id as ExternalID.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	Email      string    `gorm:"uniqueIndex;not null"`
	ExternalID string
	State      UserState `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsEnabled reports whether the user may authenticate.
func (u *User) IsEnabled() bool {
	return u.State == UserStateEnabled
}

// CreateUser carries the fields needed to provision a new user.
type CreateUser struct {
	Name       string
	Email      string
	ExternalID string
}
