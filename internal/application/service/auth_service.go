package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidecat/tidecat/internal/application/dto"
	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/domain/repository"
	"github.com/tidecat/tidecat/internal/infrastructure/monitoring"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*models.DecodedToken, error)
}

// TokenMinter issues internal access tokens.
type TokenMinter interface {
	CreateAccessToken(subject, email string) (string, error)
}

// AuthService implements the OAuth 2.0 token-exchange flow: a caller trades
// a verified external or internal token for a fresh internal access token.
type AuthService struct {
	authorizationEnabled  bool
	bootstrapAdminSubject string
	validator             TokenValidator
	minter                TokenMinter
	users                 repository.UserRepository
	bootstrap             *BootstrapService
	metrics               *monitoring.Metrics
	log                   logger.Logger
}

// NewAuthService wires the token-exchange service.
func NewAuthService(
	authorizationEnabled bool,
	bootstrapAdminSubject string,
	validator TokenValidator,
	minter TokenMinter,
	users repository.UserRepository,
	bootstrap *BootstrapService,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *AuthService {
	return &AuthService{
		authorizationEnabled:  authorizationEnabled,
		bootstrapAdminSubject: bootstrapAdminSubject,
		validator:             validator,
		minter:                minter,
		users:                 users,
		bootstrap:             bootstrap,
		metrics:               metrics,
		log:                   log.WithComponent("auth_service"),
	}
}

// Exchange validates the subject token and mints an internal access token
// for the identity it proves.
func (s *AuthService) Exchange(ctx context.Context, form *dto.TokenExchangeForm) (*dto.TokenExchangeInfo, error) {
	start := time.Now()
	info, err := s.exchange(ctx, form)
	if err != nil {
		s.metrics.RecordExchange("failure", time.Since(start))
		return nil, err
	}
	s.metrics.RecordExchange("success", time.Since(start))
	return info, nil
}

func (s *AuthService) exchange(ctx context.Context, form *dto.TokenExchangeForm) (*dto.TokenExchangeInfo, error) {
	if !s.authorizationEnabled {
		return nil, errors.InvalidRequest("authorization is disabled")
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	token, err := s.validator.Validate(ctx, form.SubjectToken)
	if err != nil {
		s.log.Warn(ctx, "subject token rejected",
			logger.String("reason", string(errors.ReasonOf(err))))
		return nil, err
	}

	var subject, email string
	switch token.IssuerClass {
	case models.IssuerExternalOIDC:
		user, err := s.resolveExternalUser(ctx, token)
		if err != nil {
			return nil, err
		}
		subject, email = user.Email, user.Email
	case models.IssuerInternal:
		subject, err = s.resolveInternalSubject(ctx, token)
		if err != nil {
			return nil, err
		}
		email = token.StringClaim(constants.ClaimEmail)
	default:
		return nil, errors.InvalidIssuer(fmt.Sprintf("unsupported token issuer: %s", token.Issuer))
	}

	accessToken, err := s.minter.CreateAccessToken(subject, email)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "token exchanged",
		logger.String("issuer_class", token.IssuerClass.String()),
		logger.String("subject", subject))

	return &dto.TokenExchangeInfo{
		AccessToken:     accessToken,
		IssuedTokenType: constants.TokenTypeAccessToken,
		TokenType:       constants.AccessTokenTypeBearer,
	}, nil
}

// resolveExternalUser finds the catalog user behind a verified provider
// token, provisioning it on first sight. The bootstrap allowlist is consulted
// only on that first provisioning.
func (s *AuthService) resolveExternalUser(ctx context.Context, token *models.DecodedToken) (*models.User, error) {
	claims := models.ExtractProviderClaims(token)
	if err := claims.Validate(); err != nil {
		return nil, err
	}

	email := claims.EffectiveEmail()
	if strings.TrimSpace(email) == "" {
		return nil, errors.MissingClaim(constants.ClaimEmail)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Internal("user lookup failed").WithCause(err)
	}

	if user == nil {
		name := claims.Name
		if strings.TrimSpace(name) == "" {
			name = email
		}
		user, err = s.users.Create(ctx, &models.CreateUser{
			Name:       name,
			Email:      email,
			ExternalID: claims.ObjectID,
		})
		if err != nil {
			return nil, errors.Internal("user provisioning failed").WithCause(err)
		}
		s.log.Info(ctx, "provisioned external user",
			logger.String("email", email),
			logger.String("external_id", claims.ObjectID))
		s.bootstrap.GrantIfAllowlisted(ctx, user)
	}

	if !user.IsEnabled() {
		return nil, errors.PermissionDenied(fmt.Sprintf("user is disabled: %s", email))
	}
	return user, nil
}

// resolveInternalSubject checks an internal token's subject. The configured
// bootstrap admin subject is always accepted without a user record; any other
// subject must name an enabled user.
func (s *AuthService) resolveInternalSubject(ctx context.Context, token *models.DecodedToken) (string, error) {
	subject := token.Subject
	if s.bootstrapAdminSubject != "" && subject == s.bootstrapAdminSubject {
		return subject, nil
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		return "", errors.Internal("user lookup failed").WithCause(err)
	}
	if user == nil || !user.IsEnabled() {
		return "", errors.InvalidRequest(fmt.Sprintf("User not allowed: %s", subject))
	}
	return subject, nil
}

// validateForm enforces the token-exchange grammar. Actor tokens are not
// supported.
func validateForm(form *dto.TokenExchangeForm) error {
	if form.GrantType != constants.GrantTypeTokenExchange {
		return errors.InvalidRequest(fmt.Sprintf("unsupported grant type: %s", form.GrantType))
	}
	if form.RequestedTokenType != constants.TokenTypeAccessToken {
		return errors.InvalidRequest(fmt.Sprintf("unsupported requested token type: %s", form.RequestedTokenType))
	}
	switch form.SubjectTokenType {
	case constants.TokenTypeAccessToken, constants.TokenTypeIDToken, constants.TokenTypeJWT:
	default:
		return errors.InvalidRequest(fmt.Sprintf("unsupported subject token type: %s", form.SubjectTokenType))
	}
	if strings.TrimSpace(form.SubjectToken) == "" {
		return errors.InvalidRequest("subject_token is required")
	}
	if form.ActorToken != "" || form.ActorTokenType != "" {
		return errors.InvalidRequest("actor tokens are not supported")
	}
	return nil
}
