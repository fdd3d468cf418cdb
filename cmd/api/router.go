package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/credwise/credwise-api/pkg/interceptors"
)

// NewRouter builds the HTTP routing tree. Auth routes are mounted at the
// root; everything else lives under /api/v1 behind the bearer-token guard.
func NewRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(interceptors.RequestLogger(deps.Logger))

	limiter := interceptors.NewRateLimiter(
		deps.Config.Server.RateLimitPerSecond,
		deps.Config.Server.RateLimitBurst,
	)
	r.Use(limiter.Middleware())

	r.GET("/health", func(c *gin.Context) {
		if err := deps.DB.Pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := interceptors.Auth(deps.AuthService)
	deps.AuthHandler.RegisterRoutes(r, authRequired)

	api := r.Group("/api/v1")
	api.Use(authRequired)

	deps.UserHandler.RegisterRoutes(api)
	deps.BNPLHandler.RegisterRoutes(api)
	deps.AnalysisHandler.RegisterRoutes(api)
	if deps.AdvisorHandler != nil {
		deps.AdvisorHandler.RegisterRoutes(api)
	}

	return r
}
