// Package policy implements the privilege grant store and the metastore
// singleton used as the target of bootstrap grants.
package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecat/tidecat/internal/domain/repository"
	"github.com/tidecat/tidecat/pkg/constants"
)

// Grant is one (principal, resource, privilege) row.
type Grant struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PrincipalID uuid.UUID           `gorm:"type:uuid;uniqueIndex:idx_grant_tuple;not null"`
	ResourceID  uuid.UUID           `gorm:"type:uuid;uniqueIndex:idx_grant_tuple;not null"`
	Privilege   constants.Privilege `gorm:"uniqueIndex:idx_grant_tuple;not null"`
}

// GrantStore is the gorm-backed Authorizer. The unique index on the grant
// tuple makes Grant idempotent.
type GrantStore struct {
	db *gorm.DB
}

// NewGrantStore returns a grant store backed by db.
func NewGrantStore(db *gorm.DB) *GrantStore {
	return &GrantStore{db: db}
}

var _ repository.Authorizer = (*GrantStore)(nil)

// Authorize reports whether the principal holds the privilege on the resource.
func (s *GrantStore) Authorize(ctx context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Grant{}).
		Where("principal_id = ? AND resource_id = ? AND privilege = ?", principalID, resourceID, privilege).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant records the privilege. Granting an existing tuple is a no-op.
func (s *GrantStore) Grant(ctx context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) error {
	grant := Grant{
		PrincipalID: principalID,
		ResourceID:  resourceID,
		Privilege:   privilege,
	}
	return s.db.WithContext(ctx).
		Where("principal_id = ? AND resource_id = ? AND privilege = ?", principalID, resourceID, privilege).
		Attrs(Grant{ID: uuid.New()}).
		FirstOrCreate(&grant).Error
}
