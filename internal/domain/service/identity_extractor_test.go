package service

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/errors"
)

func TestExtractExternalPrincipal(t *testing.T) {
	extractor := NewIdentityExtractor()
	token := &models.DecodedToken{
		Issuer:      externalIssuer,
		IssuerClass: models.IssuerExternalOIDC,
		Claims: jwt.MapClaims{
			"oid":    "oid-1",
			"tid":    "tid-1",
			"name":   "Alice",
			"email":  "alice@example.com",
			"roles":  []interface{}{"admin"},
			"groups": []interface{}{"engineering"},
		},
	}

	principal, err := extractor.Extract(token)
	require.NoError(t, err)
	assert.Equal(t, "oid-1", principal.UserID)
	assert.Equal(t, "tid-1", principal.TenantID)
	assert.Equal(t, "Alice", principal.DisplayName)
	assert.Equal(t, "alice@example.com", principal.Email)
	assert.True(t, principal.HasRole("admin"))
	assert.False(t, principal.HasRole("reader"))
	assert.True(t, principal.InGroup("engineering"))
}

func TestExtractExternalPrincipalEmailFallback(t *testing.T) {
	extractor := NewIdentityExtractor()
	token := &models.DecodedToken{
		IssuerClass: models.IssuerExternalOIDC,
		Claims: jwt.MapClaims{
			"oid":                "oid-1",
			"tid":                "tid-1",
			"name":               "Alice",
			"preferred_username": "alice@alt.example",
		},
	}

	principal, err := extractor.Extract(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@alt.example", principal.Email)
}

func TestExtractExternalPrincipalRequiresIdentity(t *testing.T) {
	extractor := NewIdentityExtractor()

	_, err := extractor.Extract(&models.DecodedToken{
		IssuerClass: models.IssuerExternalOIDC,
		Claims:      jwt.MapClaims{"tid": "tid-1"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ReasonMissingClaim, errors.ReasonOf(err))

	_, err = extractor.Extract(&models.DecodedToken{
		IssuerClass: models.IssuerExternalOIDC,
		Claims:      jwt.MapClaims{"oid": "oid-1"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ReasonMissingClaim, errors.ReasonOf(err))
}

func TestExtractInternalPrincipal(t *testing.T) {
	extractor := NewIdentityExtractor()
	token := &models.DecodedToken{
		IssuerClass: models.IssuerInternal,
		Subject:     "alice@example.com",
		Claims:      jwt.MapClaims{"email": "alice@example.com"},
	}

	principal, err := extractor.Extract(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.UserID)
	assert.Equal(t, "alice@example.com", principal.Email)
	assert.NotNil(t, principal.Roles)
	assert.NotNil(t, principal.Groups)
	assert.Empty(t, principal.Roles)
}

func TestExtractInternalPrincipalRequiresSubject(t *testing.T) {
	extractor := NewIdentityExtractor()

	_, err := extractor.Extract(&models.DecodedToken{IssuerClass: models.IssuerInternal})
	require.Error(t, err)
	assert.Equal(t, errors.ReasonMissingClaim, errors.ReasonOf(err))
}

func TestExtractUnknownIssuerClass(t *testing.T) {
	extractor := NewIdentityExtractor()

	_, err := extractor.Extract(&models.DecodedToken{IssuerClass: models.IssuerUnknown})
	require.Error(t, err)
	assert.Equal(t, errors.ReasonInvalidIssuer, errors.ReasonOf(err))
}
