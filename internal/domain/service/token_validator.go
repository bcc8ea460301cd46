package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/infrastructure/monitoring"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

// TokenValidator verifies bearer tokens end to end: decode, classify the
// issuer, resolve the signing key, verify the signature and time claims, and
// check the claims each issuer class requires.
type TokenValidator struct {
	resolver             KeyResolver
	providerHostPatterns []string
	clockSkew            time.Duration
	expectedAudience     string
	metrics              *monitoring.Metrics
	log                  logger.Logger
}

// NewTokenValidator builds a validator. expectedAudience may be empty, in
// which case no audience check is performed.
func NewTokenValidator(
	resolver KeyResolver,
	providerHostPatterns []string,
	clockSkew time.Duration,
	expectedAudience string,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *TokenValidator {
	if len(providerHostPatterns) == 0 {
		providerHostPatterns = constants.DefaultProviderHostPatterns
	}
	if clockSkew <= 0 {
		clockSkew = constants.DefaultClockSkew
	}
	return &TokenValidator{
		resolver:             resolver,
		providerHostPatterns: providerHostPatterns,
		clockSkew:            clockSkew,
		expectedAudience:     expectedAudience,
		metrics:              metrics,
		log:                  log.WithComponent("token_validator"),
	}
}

// Validate verifies a raw bearer token and returns its decoded form.
func (v *TokenValidator) Validate(ctx context.Context, rawToken string) (*models.DecodedToken, error) {
	decoded, err := v.validate(ctx, rawToken)
	if err != nil {
		class := models.IssuerUnknown
		if decoded != nil {
			class = decoded.IssuerClass
		}
		v.metrics.RecordValidation(class.String(), "failure")
		return nil, err
	}
	v.metrics.RecordValidation(decoded.IssuerClass.String(), "success")
	return decoded, nil
}

func (v *TokenValidator) validate(ctx context.Context, rawToken string) (*models.DecodedToken, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, errors.Malformed("empty bearer token")
	}

	// The unverified pass only reads the issuer and key id so the right key
	// can be resolved. Nothing from it is trusted until verification.
	parser := jwt.NewParser()
	unverified, _, err := parser.ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Malformed("unable to decode token").WithCause(err)
	}

	issuer, err := unverified.Claims.GetIssuer()
	if err != nil || issuer == "" {
		return nil, errors.MissingClaim(constants.ClaimIssuer)
	}

	class := models.ClassifyIssuer(issuer, v.providerHostPatterns)
	decoded := &models.DecodedToken{Issuer: issuer, IssuerClass: class}
	if class == models.IssuerUnknown {
		return decoded, errors.InvalidIssuer(fmt.Sprintf("unsupported token issuer: %s", issuer))
	}

	keyID, _ := unverified.Header["kid"].(string)
	algorithmHint, _ := unverified.Header["alg"].(string)
	decoded.KeyID = keyID

	resolved, err := v.resolver.Resolve(ctx, issuer, class, keyID, algorithmHint)
	if err != nil {
		return decoded, err
	}
	decoded.Algorithm = resolved.Algorithm

	verified, err := jwt.Parse(rawToken,
		func(t *jwt.Token) (interface{}, error) { return resolved.Key, nil },
		jwt.WithValidMethods([]string{resolved.Algorithm}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return decoded, mapVerificationError(err)
	}

	claims, ok := verified.Claims.(jwt.MapClaims)
	if !ok {
		return decoded, errors.Malformed("unexpected claim format")
	}
	decoded.Claims = claims
	decoded.Subject, _ = claims.GetSubject()

	if err := v.checkRequiredClaims(decoded); err != nil {
		return decoded, err
	}

	if v.expectedAudience != "" {
		if err := v.checkAudience(claims); err != nil {
			return decoded, err
		}
	}

	v.log.Debug(ctx, "token validated",
		logger.String("issuer", issuer),
		logger.String("issuer_class", class.String()),
		logger.String("subject", decoded.Subject))

	return decoded, nil
}

// checkRequiredClaims enforces the per-class claim requirements: external
// tokens must identify the user (oid) and carry a display name; internal
// tokens must carry a subject.
func (v *TokenValidator) checkRequiredClaims(token *models.DecodedToken) error {
	switch token.IssuerClass {
	case models.IssuerExternalOIDC:
		if token.StringClaim(constants.ClaimObjectID) == "" {
			return errors.MissingClaim(constants.ClaimObjectID)
		}
		if token.StringClaim(constants.ClaimName) == "" {
			return errors.MissingClaim(constants.ClaimName)
		}
	case models.IssuerInternal:
		if strings.TrimSpace(token.Subject) == "" {
			return errors.MissingClaim(constants.ClaimSubject)
		}
	}
	return nil
}

func (v *TokenValidator) checkAudience(claims jwt.MapClaims) error {
	audiences, err := claims.GetAudience()
	if err != nil || len(audiences) == 0 {
		return errors.AudienceMismatch("token carries no audience")
	}
	for _, aud := range audiences {
		if aud == v.expectedAudience {
			return nil
		}
	}
	return errors.AudienceMismatch(
		fmt.Sprintf("token audience does not include %s", v.expectedAudience))
}

// mapVerificationError translates golang-jwt sentinel errors into the
// catalog taxonomy.
func mapVerificationError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return errors.Expired("token is expired").WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenNotValidYet):
		return errors.NotYetValid("token is not valid yet").WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return errors.NotYetValid("token used before issued").WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return errors.MissingClaim(constants.ClaimExpiration).WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenInvalidIssuer):
		return errors.InvalidIssuer("token issuer changed between decode and verification").WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.BadSignature("token signature verification failed").WithCause(err)
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		return errors.Malformed("unable to decode token").WithCause(err)
	default:
		return errors.BadSignature("token verification failed").WithCause(err)
	}
}
