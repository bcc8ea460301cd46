// Command server runs the tidecat auth core: token exchange, logout, and the
// bearer-token gate for catalog requests.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	appservice "github.com/tidecat/tidecat/internal/application/service"
	"github.com/tidecat/tidecat/internal/config"
	domainservice "github.com/tidecat/tidecat/internal/domain/service"
	"github.com/tidecat/tidecat/internal/infrastructure/crypto"
	"github.com/tidecat/tidecat/internal/infrastructure/monitoring"
	"github.com/tidecat/tidecat/internal/infrastructure/persistence"
	"github.com/tidecat/tidecat/internal/infrastructure/persistence/gormrepo"
	"github.com/tidecat/tidecat/internal/infrastructure/policy"
	"github.com/tidecat/tidecat/internal/infrastructure/ratelimit"
	"github.com/tidecat/tidecat/internal/interfaces/http/handlers"
	"github.com/tidecat/tidecat/internal/interfaces/http/router"
	"github.com/tidecat/tidecat/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := monitoring.InitTracer(&cfg.Tracing)
	if err != nil {
		log.Fatal(ctx, "failed to initialize tracing", err)
	}
	defer shutdownTracer()

	db, err := persistence.Open(&cfg.Database)
	if err != nil {
		log.Fatal(ctx, "failed to open database", err)
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	securityContext, err := crypto.NewSecurityContext(cfg.Security.AccessTokenTTL)
	if err != nil {
		log.Fatal(ctx, "failed to initialize internal signing key", err)
	}

	keyCache := crypto.NewKeyCache(cfg.OIDC.JWKSCacheTTL, cfg.OIDC.JWKSMaxKeys)
	keyCache.SetEvictionHook(func(string) { metrics.KeyCacheEvictions.Inc() })
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tidecat_key_cache_size",
		Help: "Current number of cached signing keys.",
	}, func() float64 { return float64(keyCache.Size()) }))

	limiter := ratelimit.NewIssuerLimiter(cfg.OIDC.JWKSRequestsPerMinute)

	resolver := crypto.NewKeyResolver(
		securityContext, keyCache, limiter,
		cfg.OIDC.JWKSCacheTTL, cfg.OIDC.HTTPTimeout,
		metrics, log,
	)
	validator := domainservice.NewTokenValidator(
		resolver,
		cfg.OIDC.ProviderHostPatterns,
		0, // default clock skew
		cfg.Security.ExpectedAudience,
		metrics, log,
	)
	extractor := domainservice.NewIdentityExtractor()

	users := gormrepo.NewUserRepository(db)
	grants := policy.NewGrantStore(db)
	metastore := policy.NewMetastoreStore(db)
	bootstrap := appservice.NewBootstrapService(
		grants, metastore,
		cfg.Bootstrap.AdminEmails, cfg.Bootstrap.AdminEmailDomains,
		log,
	)
	authService := appservice.NewAuthService(
		cfg.Security.AuthorizationEnabled,
		cfg.Security.BootstrapAdminSubject,
		validator, securityContext, users, bootstrap,
		metrics, log,
	)

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Options{
		AuthHandler:  handlers.NewAuthHandler(authService, securityContext, cfg.Security.CookieTimeout, log),
		Validator:    validator,
		Extractor:    extractor,
		Registry:     registry,
		PprofEnabled: cfg.Server.PprofEnabled,
		Log:          log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info(ctx, "server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "graceful shutdown failed", err)
	}
}
