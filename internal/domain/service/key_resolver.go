package service

import (
	"context"
	"crypto/rsa"

	"github.com/tidecat/tidecat/internal/domain/models"
)

// ResolvedKey is a verification key together with the algorithm it must be
// verified with.
type ResolvedKey struct {
	Key       *rsa.PublicKey
	Algorithm string
}

// KeyResolver maps an issuer and key id to a verification key. Implementations
// may consult caches or the network; hint is the alg from the token header and
// may be empty.
type KeyResolver interface {
	Resolve(ctx context.Context, issuer string, class models.IssuerClass, keyID, hint string) (*ResolvedKey, error)
}
