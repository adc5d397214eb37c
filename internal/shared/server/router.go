package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"letter-backend/internal/shared/config"
	"letter-backend/internal/shared/metrics"
	"letter-backend/internal/shared/server/middleware"
)

// RouteRegistrar mounts its routes under the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps are the handlers mounted under /api/v1. Nil entries are skipped.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler RouteRegistrar
	UserHandler     RouteRegistrar
	GoogleAuth      RouteRegistrar
	Health          RouteRegistrar
	// RateLimits overrides DefaultRateLimits when set.
	RateLimits map[string]middleware.RateLimitRule
}

// DefaultRateLimits allows steady browsing and a few uploads per minute.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT":                        {Rate: 5, Burst: 30},
		middleware.AnalyzeRateLimitGroup: {Rate: 0.1, Burst: 5},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = DefaultRateLimits()
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rules,
			GroupFor: rateLimitGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	for _, h := range []RouteRegistrar{deps.Health, deps.GoogleAuth, deps.UserHandler, deps.AnalysisHandler} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/analyses" {
		return middleware.AnalyzeRateLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
