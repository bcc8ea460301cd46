package service

import (
	"strings"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
)

// IdentityExtractor derives a request Principal from a verified token. It is
// pure: no I/O, no clock, deterministic for a given token.
type IdentityExtractor struct{}

// NewIdentityExtractor returns an extractor.
func NewIdentityExtractor() *IdentityExtractor {
	return &IdentityExtractor{}
}

// Extract builds the Principal for a verified token. External tokens identify
// the user by the provider object id; internal tokens by the subject. Tokens
// from which no user id can be derived are rejected.
func (e *IdentityExtractor) Extract(token *models.DecodedToken) (*models.Principal, error) {
	switch token.IssuerClass {
	case models.IssuerExternalOIDC:
		return e.extractExternal(token)
	case models.IssuerInternal:
		return e.extractInternal(token)
	default:
		return nil, errors.InvalidIssuer("cannot derive identity for unknown issuer")
	}
}

func (e *IdentityExtractor) extractExternal(token *models.DecodedToken) (*models.Principal, error) {
	userID := strings.TrimSpace(token.StringClaim(constants.ClaimObjectID))
	if userID == "" {
		return nil, errors.MissingClaim(constants.ClaimObjectID)
	}
	tenantID := strings.TrimSpace(token.StringClaim(constants.ClaimTenantID))
	if tenantID == "" {
		return nil, errors.MissingClaim(constants.ClaimTenantID)
	}

	claims := models.ExtractProviderClaims(token)
	return &models.Principal{
		UserID:      userID,
		DisplayName: claims.Name,
		Email:       claims.EffectiveEmail(),
		TenantID:    tenantID,
		Roles:       claims.Roles,
		Groups:      claims.Groups,
	}, nil
}

func (e *IdentityExtractor) extractInternal(token *models.DecodedToken) (*models.Principal, error) {
	subject := strings.TrimSpace(token.Subject)
	if subject == "" {
		return nil, errors.MissingClaim(constants.ClaimSubject)
	}
	return &models.Principal{
		UserID:      subject,
		DisplayName: subject,
		Email:       token.StringClaim(constants.ClaimEmail),
		Roles:       []string{},
		Groups:      []string{},
	}, nil
}
