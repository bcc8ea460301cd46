package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tidecat/tidecat/pkg/constants"
)

// Authorizer is the boolean contract with the catalog's authorization engine.
type Authorizer interface {
	// Authorize reports whether the principal holds the privilege on the
	// resource.
	Authorize(ctx context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) (bool, error)

	// Grant issues an explicit privilege grant. Granting twice must not error
	// or duplicate state.
	Grant(ctx context.Context, principalID, resourceID uuid.UUID, privilege constants.Privilege) error
}

// MetastoreProvider exposes the id of the top-level catalog resource, the
// target of bootstrap grants.
type MetastoreProvider interface {
	MetastoreID(ctx context.Context) (uuid.UUID, error)
}
