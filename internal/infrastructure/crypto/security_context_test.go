package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecat/tidecat/pkg/constants"
)

func TestSecurityContextMintsVerifiableTokens(t *testing.T) {
	sc, err := NewSecurityContext(time.Hour)
	require.NoError(t, err)

	raw, err := sc.CreateAccessToken("alice@example.com", "alice@example.com")
	require.NoError(t, err)

	token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		kid, _ := tok.Header["kid"].(string)
		return sc.PublicKey(kid), nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, constants.IssuerInternal, claims[constants.ClaimIssuer])
	assert.Equal(t, "alice@example.com", claims[constants.ClaimSubject])
	assert.Equal(t, "alice@example.com", claims[constants.ClaimEmail])
	assert.NotEmpty(t, claims[constants.ClaimTokenID])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestSecurityContextPublicKeyRequiresMatchingKeyID(t *testing.T) {
	sc, err := NewSecurityContext(time.Hour)
	require.NoError(t, err)

	assert.NotNil(t, sc.PublicKey(sc.KeyID()))
	assert.Nil(t, sc.PublicKey("some-other-kid"))
	assert.Nil(t, sc.PublicKey(""))
}

func TestSecurityContextJWKS(t *testing.T) {
	sc, err := NewSecurityContext(time.Hour)
	require.NoError(t, err)

	keySet := sc.JWKS()
	require.Len(t, keySet.Keys, 1)
	jwk := keySet.Keys[0]
	assert.Equal(t, sc.KeyID(), jwk.KeyID)
	assert.Equal(t, "RS256", jwk.Algorithm)
	assert.Equal(t, "sig", jwk.Use)
	assert.Equal(t, sc.PublicKey(sc.KeyID()), jwk.Key)
}

func TestSecurityContextEachTokenHasUniqueID(t *testing.T) {
	sc, err := NewSecurityContext(time.Hour)
	require.NoError(t, err)

	first, err := sc.CreateAccessToken("admin", "")
	require.NoError(t, err)
	second, err := sc.CreateAccessToken("admin", "")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
