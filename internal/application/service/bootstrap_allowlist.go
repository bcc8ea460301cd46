// Package service implements the application-level authentication flows:
// token exchange, logout, and bootstrap administrator provisioning.
package service

import (
	"context"
	"strings"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/internal/domain/repository"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/logger"
)

// BootstrapService grants the OWNER privilege on the metastore to newly
// provisioned users whose email is on the administrator allowlist. With both
// lists empty it is a no-op.
//
// Bootstrap failures are logged and swallowed: a broken grant must not block
// user provisioning. The affected user simply arrives without admin rights
// and can be granted them later.
type BootstrapService struct {
	authorizer repository.Authorizer
	metastore  repository.MetastoreProvider
	emails     []string
	domains    []string
	log        logger.Logger
}

// NewBootstrapService normalizes the allowlists (trimmed, lowercased, blanks
// dropped) at construction so matching is a pure comparison. Domain entries
// must carry their leading "@" (e.g. "@company.com"); entries without it are
// not valid domains and are skipped with a warning.
func NewBootstrapService(
	authorizer repository.Authorizer,
	metastore repository.MetastoreProvider,
	adminEmails []string,
	adminDomains []string,
	log logger.Logger,
) *BootstrapService {
	log = log.WithComponent("bootstrap")
	return &BootstrapService{
		authorizer: authorizer,
		metastore:  metastore,
		emails:     normalizeList(adminEmails),
		domains:    normalizeDomains(adminDomains, log),
		log:        log,
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeDomains(values []string, log logger.Logger) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "@") {
			log.Warn(context.Background(), "ignoring admin domain entry without leading @",
				logger.String("entry", v))
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsAllowlisted reports whether the email matches the allowlist: an exact
// email match, or an "@domain" entry matching the full domain suffix of the
// email. Subdomains do not match a parent domain entry.
func (s *BootstrapService) IsAllowlisted(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range s.emails {
		if email == allowed {
			return true
		}
	}
	for _, domain := range s.domains {
		if strings.HasSuffix(email, domain) {
			return true
		}
	}
	return false
}

// GrantIfAllowlisted grants OWNER on the metastore when the user's email is
// allowlisted. Idempotent, and never returns an error.
func (s *BootstrapService) GrantIfAllowlisted(ctx context.Context, user *models.User) {
	if len(s.emails) == 0 && len(s.domains) == 0 {
		return
	}
	if !s.IsAllowlisted(user.Email) {
		return
	}

	metastoreID, err := s.metastore.MetastoreID(ctx)
	if err != nil {
		s.log.Error(ctx, "bootstrap grant skipped, metastore unavailable", err,
			logger.String("email", user.Email))
		return
	}

	if err := s.authorizer.Grant(ctx, user.ID, metastoreID, constants.PrivilegeOwner); err != nil {
		s.log.Error(ctx, "bootstrap grant failed", err,
			logger.String("email", user.Email),
			logger.String("metastore_id", metastoreID.String()))
		return
	}

	s.log.Info(ctx, "bootstrap admin granted",
		logger.String("email", user.Email),
		logger.String("metastore_id", metastoreID.String()))
}
