package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"speedr-backend/internal/shared/server/respond"
)

const workerProbeTimeout = 2 * time.Second

// HealthProbe reports whether a dependency is reachable.
type HealthProbe func(ctx context.Context) error

// registerHealthRoutes attaches /health. The API stays healthy when the
// worker is down; its state is reported alongside.
func registerHealthRoutes(rg *gin.RouterGroup, worker HealthProbe) {
	rg.GET("/health", func(c *gin.Context) {
		body := gin.H{"ok": true}
		if worker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), workerProbeTimeout)
			defer cancel()
			if err := worker(ctx); err != nil {
				body["worker"] = "unreachable"
			} else {
				body["worker"] = "ok"
			}
		}
		respond.JSON(c, http.StatusOK, body)
	})
}
