// Package handlers implements the HTTP endpoints of the auth core.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"

	"github.com/tidecat/tidecat/internal/application/dto"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

// TokenExchanger performs the token-exchange flow.
type TokenExchanger interface {
	Exchange(ctx context.Context, form *dto.TokenExchangeForm) (*dto.TokenExchangeInfo, error)
}

// KeySetProvider serves the internal issuer's public key set.
type KeySetProvider interface {
	JWKS() jose.JSONWebKeySet
}

// AuthHandler serves the token, logout, and key-set endpoints.
type AuthHandler struct {
	exchanger     TokenExchanger
	keys          KeySetProvider
	cookieTimeout time.Duration
	log           logger.Logger
}

// NewAuthHandler builds the handler. cookieTimeout bounds the session cookie
// set on ext=cookie requests.
func NewAuthHandler(exchanger TokenExchanger, keys KeySetProvider, cookieTimeout time.Duration, log logger.Logger) *AuthHandler {
	if cookieTimeout <= 0 {
		cookieTimeout = constants.DefaultCookieTimeout
	}
	return &AuthHandler{
		exchanger:     exchanger,
		keys:          keys,
		cookieTimeout: cookieTimeout,
		log:           log.WithComponent("auth_handler"),
	}
}

// ExchangeToken handles POST /auth/tokens. The form is url-encoded per the
// OAuth 2.0 token-exchange profile. With ext=cookie the issued token is
// additionally set as a secure session cookie.
func (h *AuthHandler) ExchangeToken(c *gin.Context) {
	var form dto.TokenExchangeForm
	if err := c.ShouldBind(&form); err != nil {
		dto.SendError(c, errors.InvalidRequest("malformed token exchange request").WithCause(err))
		return
	}

	info, err := h.exchanger.Exchange(c.Request.Context(), &form)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	if c.Query("ext") == constants.TokenEndpointExtensionCookie {
		c.SetCookie(
			constants.SessionCookieName,
			info.AccessToken,
			int(h.cookieTimeout.Seconds()),
			constants.SessionCookiePath,
			"",   // current host only
			true, // secure
			true, // http-only
		)
	}

	dto.SendSuccess(c, http.StatusOK, info)
}

// Keys handles GET /auth/keys, publishing the internal issuer's JWKS.
func (h *AuthHandler) Keys(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, h.keys.JWKS())
}

// Logout handles POST /auth/logout. If the session cookie is present it is
// overwritten with an immediately expiring one. Always returns 200 with an
// empty JSON object.
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, err := c.Cookie(constants.SessionCookieName); err == nil {
		c.SetCookie(
			constants.SessionCookieName,
			"",
			-1,
			constants.SessionCookiePath,
			"",
			true,
			true,
		)
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{})
}
