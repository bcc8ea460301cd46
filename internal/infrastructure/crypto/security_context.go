package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
)

// SecurityContext is the internal self-signed issuer: it holds the server's
// RSA keypair, mints internal access tokens, and serves as the trusted local
// key source for the key resolver (no rate limit applies to it).
type SecurityContext struct {
	privateKey *rsa.PrivateKey
	keyID      string
	tokenTTL   time.Duration
}

// NewSecurityContext generates a fresh RSA keypair for the internal issuer.
func NewSecurityContext(tokenTTL time.Duration) (*SecurityContext, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Internal("failed to generate internal signing key").WithCause(err)
	}
	return NewSecurityContextWithKey(privateKey, uuid.NewString(), tokenTTL), nil
}

// NewSecurityContextWithKey builds a security context around an existing
// keypair, e.g. one loaded from disk.
func NewSecurityContextWithKey(privateKey *rsa.PrivateKey, keyID string, tokenTTL time.Duration) *SecurityContext {
	if tokenTTL <= 0 {
		tokenTTL = constants.DefaultAccessTokenTTL
	}
	return &SecurityContext{
		privateKey: privateKey,
		keyID:      keyID,
		tokenTTL:   tokenTTL,
	}
}

// KeyID returns the identifier of the internal signing key.
func (s *SecurityContext) KeyID() string {
	return s.keyID
}

// PublicKey returns the public half of the internal signing key, or nil if
// keyID does not name it.
func (s *SecurityContext) PublicKey(keyID string) *rsa.PublicKey {
	if keyID != s.keyID {
		return nil
	}
	return &s.privateKey.PublicKey
}

// JWKS returns the internal issuer's public key set, suitable for serving to
// downstream verifiers.
func (s *SecurityContext) JWKS() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       &s.privateKey.PublicKey,
			KeyID:     s.keyID,
			Algorithm: string(constants.DefaultJWTAlgorithm),
			Use:       "sig",
		}},
	}
}

// CreateAccessToken mints a short-lived internal access token bound to the
// given subject and email.
func (s *SecurityContext) CreateAccessToken(subject, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		constants.ClaimIssuer:     constants.IssuerInternal,
		constants.ClaimSubject:    subject,
		constants.ClaimEmail:      email,
		constants.ClaimTokenID:    uuid.NewString(),
		constants.ClaimIssuedAt:   jwt.NewNumericDate(now),
		constants.ClaimExpiration: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", errors.Internal("failed to sign access token").WithCause(err)
	}
	return signed, nil
}
