// Package dto defines the wire shapes of the authentication endpoints.
package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/tidecat/tidecat/pkg/errors"
)

// TokenExchangeForm is the OAuth 2.0 token-exchange request body
// (application/x-www-form-urlencoded).
type TokenExchangeForm struct {
	GrantType          string `form:"grant_type"`
	RequestedTokenType string `form:"requested_token_type"`
	SubjectTokenType   string `form:"subject_token_type"`
	SubjectToken       string `form:"subject_token"`
	ActorTokenType     string `form:"actor_token_type"`
	ActorToken         string `form:"actor_token"`
	Scope              string `form:"scope"`
}

// TokenExchangeInfo is the successful token-exchange response body.
type TokenExchangeInfo struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
}

// SendSuccess writes a 2xx JSON response.
func SendSuccess(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// SendError writes the OAuth-shaped error body with the status the error
// carries.
func SendError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatusOf(err), errors.ToErrorResponse(err))
}
