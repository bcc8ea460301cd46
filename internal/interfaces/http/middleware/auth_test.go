package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecat/tidecat/internal/domain/models"
	"github.com/tidecat/tidecat/pkg/constants"
	"github.com/tidecat/tidecat/pkg/errors"
	"github.com/tidecat/tidecat/pkg/logger"
)

// stubValidator accepts exactly one raw token.
type stubValidator struct {
	accepted string
	token    *models.DecodedToken
	err      error
	seen     []string
}

func (v *stubValidator) Validate(_ context.Context, rawToken string) (*models.DecodedToken, error) {
	v.seen = append(v.seen, rawToken)
	if v.err != nil {
		return nil, v.err
	}
	if rawToken == v.accepted {
		return v.token, nil
	}
	return nil, errors.BadSignature("token signature verification failed")
}

type stubExtractor struct{ err error }

func (e *stubExtractor) Extract(token *models.DecodedToken) (*models.Principal, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &models.Principal{UserID: token.Subject, Roles: []string{}, Groups: []string{}}, nil
}

func newProtectedEngine(validator *stubValidator, extractor *stubExtractor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Authenticate(validator, extractor, logger.NewNoopLogger()))
	engine.GET("/whoami", func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal attached"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID})
	})
	return engine
}

func validToken() *models.DecodedToken {
	return &models.DecodedToken{
		Issuer:      "internal",
		IssuerClass: models.IssuerInternal,
		Subject:     "alice@example.com",
	}
}

func TestAuthenticateFromHeader(t *testing.T) {
	validator := &stubValidator{accepted: "good-token", token: validToken()}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice@example.com", body["user_id"])
}

func TestAuthenticateFromCookie(t *testing.T) {
	validator := &stubValidator{accepted: "cookie-token", token: validToken()}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateHeaderTakesPrecedenceOverCookie(t *testing.T) {
	validator := &stubValidator{accepted: "header-token", token: validToken()}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"header-token"}, validator.seen)
}

func TestAuthenticateMissingToken(t *testing.T) {
	validator := &stubValidator{}
	engine := newProtectedEngine(validator, &stubExtractor{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, validator.seen, "no validation without a token")
}

func TestAuthenticateRejectedToken(t *testing.T) {
	validator := &stubValidator{accepted: "good-token", token: validToken()}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer forged-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeInvalidGrant, body.Error)
}

func TestAuthenticateRateLimitedIs429(t *testing.T) {
	validator := &stubValidator{err: errors.RateLimited("https://issuer.example")}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeSlowDown, body.Error)
}

func TestAuthenticatePermissionDeniedIs403(t *testing.T) {
	validator := &stubValidator{err: errors.PermissionDenied("user is disabled")}
	engine := newProtectedEngine(validator, &stubExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		id, ok := c.Request.Context().Value(constants.ContextKeyRequestID).(string)
		assert.True(t, ok)
		assert.NotEmpty(t, id)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
}
