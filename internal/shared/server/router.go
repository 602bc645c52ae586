package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/artifacts"
	"speedr-backend/internal/shared/config"
	"speedr-backend/internal/shared/metrics"
	"speedr-backend/internal/shared/server/middleware"
)

const (
	rateGroupDefault  = "DEFAULT"
	rateGroupWebhook  = "WEBHOOK"
	// rateGroupCallback has no rule: a dropped completion callback would
	// leave its request PROCESSING for good.
	rateGroupCallback = "CALLBACK"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	ArtifactsHandler *artifacts.Handler
	AnalysisHandler  *analyses.Handler
	WorkerHealth     HealthProbe
	RateLimits       map[string]middleware.RateLimitRule
}

// DefaultRateLimits allows a busy worker to post progress several times a
// second per analysis while keeping client routes modest.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		rateGroupDefault: {Rate: 20, Burst: 40},
		rateGroupWebhook: {Rate: 100, Burst: 200},
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
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Rules:        rules,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	registerHealthRoutes(api, deps.WorkerHealth)
	if deps.ArtifactsHandler != nil {
		deps.ArtifactsHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
		deps.AnalysisHandler.RegisterWebhookRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	path := c.FullPath()
	switch {
	case strings.HasSuffix(path, "/:id/callback"):
		return rateGroupCallback
	case strings.HasSuffix(path, "/:id/progress"):
		return rateGroupWebhook
	}
	return rateGroupDefault
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
