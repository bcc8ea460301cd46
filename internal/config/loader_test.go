package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidecat/tidecat/pkg/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Security.AuthorizationEnabled)
	assert.Equal(t, constants.DefaultAccessTokenTTL, cfg.Security.AccessTokenTTL)
	assert.Equal(t, constants.DefaultBootstrapAdminSubject, cfg.Security.BootstrapAdminSubject)
	assert.Equal(t, constants.DefaultProviderHostPatterns, cfg.OIDC.ProviderHostPatterns)
	assert.Equal(t, 24*time.Hour, cfg.OIDC.JWKSCacheTTL)
	assert.Equal(t, 10, cfg.OIDC.JWKSMaxKeys)
	assert.Equal(t, 10, cfg.OIDC.JWKSRequestsPerMinute)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TIDECAT_SERVER_PORT", "9090")
	t.Setenv("TIDECAT_SECURITY_BOOTSTRAP_ADMIN_SUBJECT", "root")
	t.Setenv("TIDECAT_OIDC_JWKS_MAX_KEYS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "root", cfg.Security.BootstrapAdminSubject)
	assert.Equal(t, 25, cfg.OIDC.JWKSMaxKeys)
}

func TestValidateRejectsNonPositiveTunables(t *testing.T) {
	base := func() *Config {
		return &Config{OIDC: OIDCConfig{
			JWKSCacheTTL:          time.Hour,
			JWKSMaxKeys:           10,
			JWKSRequestsPerMinute: 10,
		}}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.OIDC.JWKSCacheTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.OIDC.JWKSMaxKeys = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.OIDC.JWKSRequestsPerMinute = 0
	assert.Error(t, cfg.Validate())
}
