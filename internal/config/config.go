// Package config holds the application's configuration model.
package config

import (
	"fmt"
	"time"
)

// Config holds the full server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PprofEnabled bool          `mapstructure:"pprof_enabled"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// SecurityConfig controls the internal issuer and the session cookie.
type SecurityConfig struct {
	// AuthorizationEnabled gates the token-exchange endpoint entirely.
	AuthorizationEnabled bool `mapstructure:"authorization_enabled"`

	// AccessTokenTTL is the lifetime of minted internal access tokens.
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// CookieTimeout is the max-age of the session cookie set on ext=cookie.
	CookieTimeout time.Duration `mapstructure:"cookie_timeout"`

	// BootstrapAdminSubject is the internal-token subject that is always
	// accepted without a user record. Empty disables the escape hatch.
	BootstrapAdminSubject string `mapstructure:"bootstrap_admin_subject"`

	// ExpectedAudience, when non-empty, is enforced against external tokens.
	ExpectedAudience string `mapstructure:"expected_audience"`
}

// OIDCConfig controls external-issuer key discovery.
type OIDCConfig struct {
	// ProviderHostPatterns are substrings that classify an issuer as an
	// external OIDC provider.
	ProviderHostPatterns []string `mapstructure:"provider_host_patterns"`

	// HTTPTimeout bounds discovery-document and key-set fetches.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	// JWKSCacheTTL is the signing-key cache TTL.
	JWKSCacheTTL time.Duration `mapstructure:"jwks_cache_ttl"`

	// JWKSMaxKeys bounds the signing-key cache.
	JWKSMaxKeys int `mapstructure:"jwks_max_keys"`

	// JWKSRequestsPerMinute limits key-discovery calls per issuer.
	JWKSRequestsPerMinute int `mapstructure:"jwks_requests_per_minute"`
}

// BootstrapConfig is the admin allowlist, read once at startup.
type BootstrapConfig struct {
	AdminEmails       []string `mapstructure:"admin_emails"`
	AdminEmailDomains []string `mapstructure:"admin_email_domains"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

// Validate checks essential configuration values.
func (c *Config) Validate() error {
	if c.OIDC.JWKSCacheTTL <= 0 {
		return fmt.Errorf("oidc.jwks_cache_ttl must be positive, got %s", c.OIDC.JWKSCacheTTL)
	}
	if c.OIDC.JWKSMaxKeys <= 0 {
		return fmt.Errorf("oidc.jwks_max_keys must be positive, got %d", c.OIDC.JWKSMaxKeys)
	}
	if c.OIDC.JWKSRequestsPerMinute <= 0 {
		return fmt.Errorf("oidc.jwks_requests_per_minute must be positive, got %d", c.OIDC.JWKSRequestsPerMinute)
	}
	return nil
}
