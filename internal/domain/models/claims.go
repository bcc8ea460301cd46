package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
)

// IssuerClass is the closed classification of a token's issuer, computed once
// per validation. Classification is a pure string test and never performs I/O.
type IssuerClass int

const (
	// IssuerUnknown is an issuer that is neither internal nor a configured
	// external provider.
	IssuerUnknown IssuerClass = iota

	// IssuerInternal is this server's own self-signed issuer.
	IssuerInternal

	// IssuerExternalOIDC is an external OpenID-Connect provider.
	IssuerExternalOIDC
)

func (c IssuerClass) String() string {
	switch c {
	case IssuerInternal:
		return "internal"
	case IssuerExternalOIDC:
		return "external_oidc"
	default:
		return "unknown"
	}
}

// ClassifyIssuer maps an issuer string to its class. providerHostPatterns are
// substrings identifying external OIDC providers (e.g. an Azure AD login host).
func ClassifyIssuer(issuer string, providerHostPatterns []string) IssuerClass {
	if issuer == constants.IssuerInternal {
		return IssuerInternal
	}
	for _, pattern := range providerHostPatterns {
		if pattern != "" && strings.Contains(issuer, pattern) {
			return IssuerExternalOIDC
		}
	}
	return IssuerUnknown
}

// DecodedToken is the verified, per-request result of token validation.
// Never persisted.
type DecodedToken struct {
	Issuer      string
	IssuerClass IssuerClass
	KeyID       string
	Algorithm   string
	Subject     string
	Claims      jwt.MapClaims
}

// StringClaim returns the named claim as a string, or "" if absent or not a
// string.
func (t *DecodedToken) StringClaim(name string) string {
	if t.Claims == nil {
		return ""
	}
	if s, ok := t.Claims[name].(string); ok {
		return s
	}
	return ""
}

// StringListClaim returns the named claim as a string slice. Absent or
// malformed claims yield an empty, non-nil slice.
func (t *DecodedToken) StringListClaim(name string) []string {
	out := []string{}
	if t.Claims == nil {
		return out
	}
	raw, ok := t.Claims[name].([]interface{})
	if !ok {
		return out
	}
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ProviderClaims are the external-provider claims the catalog cares about,
// extracted from a verified token.
type ProviderClaims struct {
	Issuer            string
	Audience          string
	Expiration        *time.Time
	NotBefore         *time.Time
	ObjectID          string
	TenantID          string
	Name              string
	Email             string
	PreferredUsername string
	Roles             []string
	Groups            []string
}

// EffectiveEmail returns the email claim, falling back to preferred_username.
func (c *ProviderClaims) EffectiveEmail() string {
	if strings.TrimSpace(c.Email) != "" {
		return c.Email
	}
	return c.PreferredUsername
}

// Validate checks that the claims required of an external provider token are
// present.
func (c *ProviderClaims) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return errors.MissingClaim(constants.ClaimIssuer)
	}
	if c.Expiration == nil {
		return errors.MissingClaim(constants.ClaimExpiration)
	}
	if strings.TrimSpace(c.ObjectID) == "" {
		return errors.MissingClaim(constants.ClaimObjectID)
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return errors.MissingClaim(constants.ClaimTenantID)
	}
	return nil
}

// ExtractProviderClaims pulls the provider claim set out of a verified token.
func ExtractProviderClaims(token *DecodedToken) *ProviderClaims {
	claims := &ProviderClaims{
		Issuer:            token.StringClaim(constants.ClaimIssuer),
		ObjectID:          token.StringClaim(constants.ClaimObjectID),
		TenantID:          token.StringClaim(constants.ClaimTenantID),
		Name:              token.StringClaim(constants.ClaimName),
		Email:             token.StringClaim(constants.ClaimEmail),
		PreferredUsername: token.StringClaim(constants.ClaimPreferredUsername),
		Roles:             token.StringListClaim(constants.ClaimRoles),
		Groups:            token.StringListClaim(constants.ClaimGroups),
	}

	if aud, err := token.Claims.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = aud[0]
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.Expiration = &t
	}
	if nbf, err := token.Claims.GetNotBefore(); err == nil && nbf != nil {
		t := nbf.Time
		claims.NotBefore = &t
	}

	return claims
}
