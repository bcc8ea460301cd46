// Package router assembles the gin engine.
package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidecat/tidecat/internal/application/service"
	"github.com/tidecat/tidecat/internal/interfaces/http/handlers"
	"github.com/tidecat/tidecat/internal/interfaces/http/middleware"
	"github.com/tidecat/tidecat/pkg/logger"
)

// Options carries the collaborators the router wires together.
type Options struct {
	AuthHandler  *handlers.AuthHandler
	Validator    service.TokenValidator
	Extractor    middleware.IdentityExtractor
	Registry     *prometheus.Registry
	PprofEnabled bool
	Log          logger.Logger
}

// New builds the HTTP surface: the unauthenticated token endpoints, the
// authenticated identity endpoint, and the operational endpoints.
func New(opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(cors.Default())

	if opts.PprofEnabled {
		pprof.Register(engine)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	api := engine.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/tokens", opts.AuthHandler.ExchangeToken)
	auth.POST("/logout", opts.AuthHandler.Logout)
	auth.GET("/keys", opts.AuthHandler.Keys)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(opts.Validator, opts.Extractor, opts.Log))
	authed.GET("/auth/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.PrincipalFrom(c))
	})

	return engine
}
