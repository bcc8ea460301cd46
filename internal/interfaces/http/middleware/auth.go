// Package middleware holds the gin middleware of the auth core.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidecat/tidecat/internal/application/service"
	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

const bearerPrefix = "Bearer "

// IdentityExtractor derives a Principal from a verified token.
type IdentityExtractor interface {
	Extract(token *models.DecodedToken) (*models.Principal, error)
}

// Authenticate gates requests on a verified bearer token. The token comes
// from the Authorization header or, failing that, the session cookie. On
// success the verified claims and the derived Principal are attached to the
// request context.
func Authenticate(validator service.TokenValidator, extractor IdentityExtractor, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("auth_middleware")
	return func(c *gin.Context) {
		rawToken := bearerToken(c)
		if rawToken == "" {
			abortUnauthorized(c, errors.Malformed("missing bearer token"))
			return
		}

		token, err := validator.Validate(c.Request.Context(), rawToken)
		if err != nil {
			log.Warn(c.Request.Context(), "request rejected",
				logger.String("reason", string(errors.ReasonOf(err))),
				logger.String("path", c.FullPath()))
			abortUnauthorized(c, err)
			return
		}

		principal, err := extractor.Extract(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(string(constants.ContextKeyClaims), token)
		c.Set(string(constants.ContextKeyPrincipal), principal)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyPrincipal, principal)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bearerToken extracts the raw token. The Authorization header takes
// precedence over the session cookie.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if cookie, err := c.Cookie(constants.SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// abortUnauthorized writes the classified failure. Authentication failures
// are 401; denial of a known identity is 403; a throttled key fetch keeps
// its 429 so callers back off instead of retrying with new credentials.
func abortUnauthorized(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	switch errors.ReasonOf(err) {
	case errors.ReasonPermissionDenied:
		status = http.StatusForbidden
	case errors.ReasonRateLimited:
		status = http.StatusTooManyRequests
	}
	c.AbortWithStatusJSON(status, errors.ToErrorResponse(err))
}

// PrincipalFrom returns the Principal attached by Authenticate, or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	if v, ok := c.Get(string(constants.ContextKeyPrincipal)); ok {
		if p, ok := v.(*models.Principal); ok {
			return p
		}
	}
	return nil
}
