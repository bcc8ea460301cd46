// Package constants defines system-wide constants for the tidecat auth core.
package constants

import "time"

// ================================================================================
// Issuer Constants
// ================================================================================

// IssuerInternal is the issuer string placed in tokens minted by this server's
// own self-signed security context.
const IssuerInternal = "internal"

// DefaultProviderHostPatterns are the external OIDC provider host substrings
// recognized by issuer classification when none are configured.
var DefaultProviderHostPatterns = []string{
	"login.microsoftonline.com",
	"sts.windows.net",
}

// ================================================================================
// OAuth 2.0 Token Exchange Constants
// ================================================================================

const (
	// GrantTypeTokenExchange is the only supported grant type on the token endpoint.
	GrantTypeTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"

	// TokenTypeAccessToken identifies an access token in token-exchange forms.
	TokenTypeAccessToken = "urn:ietf:params:oauth:token-type:access_token"

	// TokenTypeIDToken identifies an OIDC identity token in token-exchange forms.
	TokenTypeIDToken = "urn:ietf:params:oauth:token-type:id_token"

	// TokenTypeJWT identifies a bare JWT in token-exchange forms.
	TokenTypeJWT = "urn:ietf:params:oauth:token-type:jwt"

	// AccessTokenTypeBearer is the token_type value returned by the token endpoint.
	AccessTokenTypeBearer = "bearer"

	// TokenEndpointExtensionCookie is the ext query value that requests the
	// issued token additionally be set as a session cookie.
	TokenEndpointExtensionCookie = "cookie"
)

// ================================================================================
// JWT Claim Names
// ================================================================================

const (
	ClaimIssuer            = "iss"
	ClaimSubject           = "sub"
	ClaimAudience          = "aud"
	ClaimExpiration        = "exp"
	ClaimIssuedAt          = "iat"
	ClaimNotBefore         = "nbf"
	ClaimTokenID           = "jti"
	ClaimEmail             = "email"
	ClaimName              = "name"
	ClaimObjectID          = "oid"
	ClaimTenantID          = "tid"
	ClaimPreferredUsername = "preferred_username"
	ClaimRoles             = "roles"
	ClaimGroups            = "groups"
)

// ================================================================================
// Signing Algorithm Constants
// ================================================================================

// JWTAlgorithm represents a JWT signing algorithm.
type JWTAlgorithm string

const (
	// AlgorithmRS256 is RSA signature with SHA-256 (default).
	AlgorithmRS256 JWTAlgorithm = "RS256"

	// AlgorithmRS384 is RSA signature with SHA-384.
	AlgorithmRS384 JWTAlgorithm = "RS384"

	// AlgorithmRS512 is RSA signature with SHA-512.
	AlgorithmRS512 JWTAlgorithm = "RS512"
)

// DefaultJWTAlgorithm is used when neither the key nor the token header names one.
const DefaultJWTAlgorithm = AlgorithmRS256

// SupportedAlgorithms lists the RSA-family algorithms the validator accepts.
var SupportedAlgorithms = []string{
	string(AlgorithmRS256),
	string(AlgorithmRS384),
	string(AlgorithmRS512),
}

// ================================================================================
// Session / Cookie Constants
// ================================================================================

const (
	// SessionCookieName is the cookie that carries the internal access token.
	SessionCookieName = "TIDECAT_TOKEN"

	// SessionCookiePath restricts the session cookie to the API surface.
	SessionCookiePath = "/api"

	// DefaultCookieTimeout is the session cookie lifetime when not configured.
	DefaultCookieTimeout = 5 * 24 * time.Hour
)

// ================================================================================
// Default Tunables
// ================================================================================

const (
	// DefaultAccessTokenTTL is the lifetime of minted internal access tokens.
	DefaultAccessTokenTTL = 1 * time.Hour

	// DefaultClockSkew is the leeway applied to exp/nbf checks.
	DefaultClockSkew = 60 * time.Second

	// DefaultJWKSCacheTTL is the key cache TTL (24 hours).
	DefaultJWKSCacheTTL = 24 * time.Hour

	// DefaultJWKSMaxKeys bounds the key cache.
	DefaultJWKSMaxKeys = 10

	// DefaultJWKSRequestsPerMinute limits key-discovery calls per issuer.
	DefaultJWKSRequestsPerMinute = 10

	// DefaultHTTPClientTimeout bounds OIDC discovery and JWKS fetches.
	DefaultHTTPClientTimeout = 10 * time.Second

	// DefaultBootstrapAdminSubject is the legacy always-allowed internal
	// subject. Set security.bootstrap_admin_subject to "" to disable it.
	DefaultBootstrapAdminSubject = "admin"
)

// ================================================================================
// Privileges and Resources
// ================================================================================

// Privilege names an access level grantable on a catalog resource.
type Privilege string

const (
	// PrivilegeOwner is the privilege granted to bootstrap administrators on
	// the metastore.
	PrivilegeOwner Privilege = "OWNER"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is a private type for request-scoped attribute keys.
type ContextKey string

const (
	// ContextKeyClaims holds the verified claim set on the request context.
	ContextKeyClaims ContextKey = "tidecat_claims"

	// ContextKeyPrincipal holds the resolved Principal on the request context.
	ContextKeyPrincipal ContextKey = "tidecat_principal"

	// ContextKeyRequestID holds the request correlation id.
	ContextKeyRequestID ContextKey = "tidecat_request_id"
)
