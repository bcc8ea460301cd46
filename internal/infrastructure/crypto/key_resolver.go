package crypto

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/domain/service"
	"github.com/tidecat/tidecat/internal/infrastructure/monitoring"
	"github.com/tidecat/tidecat/internal/infrastructure/ratelimit"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

const wellKnownPath = ".well-known/openid-configuration"

// discoveryDocument is the subset of the OIDC provider configuration the
// resolver needs.
type discoveryDocument struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// KeyResolver resolves (issuer, keyId, algorithm hint) tuples to verified
// RSA public keys. Internal-issuer keys come from the local security context
// without rate limiting; external keys come from OIDC discovery plus a JWKS
// fetch, mediated by the key cache and the per-issuer rate limiter.
type KeyResolver struct {
	securityContext *SecurityContext
	cache           *KeyCache
	limiter         *ratelimit.IssuerLimiter
	discoveryCache  *gocache.Cache
	httpClient      *http.Client
	fetchGroup      singleflight.Group
	metrics         *monitoring.Metrics
	log             logger.Logger
}

// NewKeyResolver wires a key resolver.
func NewKeyResolver(
	securityContext *SecurityContext,
	cache *KeyCache,
	limiter *ratelimit.IssuerLimiter,
	discoveryTTL time.Duration,
	httpTimeout time.Duration,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *KeyResolver {
	if httpTimeout <= 0 {
		httpTimeout = constants.DefaultHTTPClientTimeout
	}
	return &KeyResolver{
		securityContext: securityContext,
		cache:           cache,
		limiter:         limiter,
		discoveryCache:  gocache.New(discoveryTTL, discoveryTTL),
		httpClient:      &http.Client{Timeout: httpTimeout},
		metrics:         metrics,
		log:             log.WithComponent("key_resolver"),
	}
}

// Resolve implements service.KeyResolver.
func (r *KeyResolver) Resolve(ctx context.Context, issuer string, class models.IssuerClass, keyID, algorithmHint string) (*service.ResolvedKey, error) {
	if cached := r.cache.Get(keyID); cached != nil {
		r.metrics.KeyCacheHits.Inc()
		return &service.ResolvedKey{Key: cached.Key, Algorithm: cached.Algorithm}, nil
	}
	r.metrics.KeyCacheMisses.Inc()

	switch class {
	case models.IssuerInternal:
		return r.resolveInternal(keyID, algorithmHint)
	case models.IssuerExternalOIDC:
		return r.resolveExternal(ctx, issuer, keyID, algorithmHint)
	default:
		return nil, errors.InvalidIssuer(fmt.Sprintf("unsupported token issuer: %s", issuer))
	}
}

// resolveInternal serves the local self-signed key. Trusted and in-process,
// so no rate limit applies.
func (r *KeyResolver) resolveInternal(keyID, algorithmHint string) (*service.ResolvedKey, error) {
	publicKey := r.securityContext.PublicKey(keyID)
	if publicKey == nil {
		return nil, errors.KeyNotFound(fmt.Sprintf("no internal key with id %s", keyID))
	}

	algorithm, err := selectAlgorithm("", algorithmHint)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Put(keyID, publicKey, algorithm); err != nil {
		return nil, err
	}
	return &service.ResolvedKey{Key: publicKey, Algorithm: algorithm}, nil
}

func (r *KeyResolver) resolveExternal(ctx context.Context, issuer, keyID, algorithmHint string) (*service.ResolvedKey, error) {
	// Concurrent misses for the same key share one upstream fetch and one
	// rate-limiter slot.
	result, err, _ := r.fetchGroup.Do(issuer+"|"+keyID, func() (interface{}, error) {
		if !r.limiter.TryAcquire(issuer) {
			r.metrics.RecordRateLimitHit(issuer)
			r.log.Warn(ctx, "key discovery rate limit exceeded", logger.String("issuer", issuer))
			return nil, errors.RateLimited(issuer)
		}

		resolved, err := r.fetchKey(ctx, issuer, keyID, algorithmHint)
		if err != nil {
			r.metrics.RecordJWKSFetch(issuer, "failure")
			return nil, err
		}
		r.metrics.RecordJWKSFetch(issuer, "success")
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*service.ResolvedKey), nil
}

func (r *KeyResolver) fetchKey(ctx context.Context, issuer, keyID, algorithmHint string) (*service.ResolvedKey, error) {
	jwksURI, err := r.jwksURIFor(ctx, issuer)
	if err != nil {
		return nil, err
	}

	body, err := r.fetch(ctx, jwksURI)
	if err != nil {
		return nil, errors.KeyNotFound("failed to fetch key set").WithCause(err)
	}

	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal(body, &keySet); err != nil {
		return nil, errors.KeyNotFound("malformed key set document").WithCause(err)
	}

	matches := keySet.Key(keyID)
	if len(matches) == 0 {
		return nil, errors.KeyNotFound(fmt.Sprintf("no key with id %s at issuer %s", keyID, issuer))
	}
	jwk := matches[0]

	rsaKey, ok := jwk.Key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.UnsupportedAlgorithm(
			fmt.Sprintf("key %s at issuer %s is not an RSA key", keyID, issuer))
	}

	algorithm, err := selectAlgorithm(jwk.Algorithm, algorithmHint)
	if err != nil {
		return nil, err
	}

	// Only a complete, verified fetch reaches the cache; abandoned fetches
	// fail before this point.
	if err := r.cache.Put(keyID, rsaKey, algorithm); err != nil {
		return nil, err
	}

	r.log.Debug(ctx, "cached signing key",
		logger.String("issuer", issuer),
		logger.String("key_id", keyID),
		logger.String("algorithm", algorithm))

	return &service.ResolvedKey{Key: rsaKey, Algorithm: algorithm}, nil
}

// jwksURIFor performs OIDC discovery for the issuer, verifying the document
// echoes the requested issuer. Discovery documents are cached with the same
// TTL as keys.
func (r *KeyResolver) jwksURIFor(ctx context.Context, issuer string) (string, error) {
	if uri, ok := r.discoveryCache.Get(issuer); ok {
		return uri.(string), nil
	}

	normalized := normalizeIssuerURL(issuer)
	body, err := r.fetch(ctx, normalized+wellKnownPath)
	if err != nil {
		return "", errors.InvalidIssuer("failed to fetch OIDC configuration").WithCause(err)
	}

	var doc discoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", errors.InvalidIssuer("malformed OIDC configuration").WithCause(err)
	}

	if doc.Issuer != strings.TrimSuffix(normalized, "/") && doc.Issuer != normalized {
		return "", errors.InvalidIssuer(
			fmt.Sprintf("issuer %q does not match provider configuration %q", issuer, doc.Issuer))
	}
	if doc.JWKSURI == "" {
		return "", errors.InvalidIssuer("provider configuration is missing jwks_uri")
	}

	r.discoveryCache.SetDefault(issuer, doc.JWKSURI)
	return doc.JWKSURI, nil
}

func (r *KeyResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// normalizeIssuerURL defaults the scheme to https and guarantees a trailing
// slash, matching what providers publish in their discovery documents.
func normalizeIssuerURL(issuer string) string {
	if !strings.HasPrefix(issuer, "https://") && !strings.HasPrefix(issuer, "http://") {
		issuer = "https://" + issuer
	}
	if !strings.HasSuffix(issuer, "/") {
		issuer += "/"
	}
	return issuer
}

// selectAlgorithm picks the signing algorithm: the one on the key itself,
// else the token header hint, else RS256. Only the RSA family is supported.
func selectAlgorithm(keyAlgorithm, hint string) (string, error) {
	algorithm := keyAlgorithm
	if algorithm == "" {
		algorithm = hint
	}
	if algorithm == "" {
		algorithm = string(constants.DefaultJWTAlgorithm)
	}

	for _, supported := range constants.SupportedAlgorithms {
		if algorithm == supported {
			return algorithm, nil
		}
	}
	return "", errors.UnsupportedAlgorithm(fmt.Sprintf("unsupported algorithm: %s", algorithm))
}
