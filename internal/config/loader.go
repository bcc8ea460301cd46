package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tidecat/tidecat/pkg/constants"
)

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("security.authorization_enabled", true)
	v.SetDefault("security.access_token_ttl", constants.DefaultAccessTokenTTL)
	v.SetDefault("security.cookie_timeout", constants.DefaultCookieTimeout)
	v.SetDefault("security.bootstrap_admin_subject", constants.DefaultBootstrapAdminSubject)
	v.SetDefault("oidc.provider_host_patterns", constants.DefaultProviderHostPatterns)
	v.SetDefault("oidc.http_timeout", constants.DefaultHTTPClientTimeout)
	v.SetDefault("oidc.jwks_cache_ttl", constants.DefaultJWKSCacheTTL)
	v.SetDefault("oidc.jwks_max_keys", constants.DefaultJWKSMaxKeys)
	v.SetDefault("oidc.jwks_requests_per_minute", constants.DefaultJWKSRequestsPerMinute)
	v.SetDefault("tracing.service_name", "tidecat-auth")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/tidecat/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("TIDECAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
