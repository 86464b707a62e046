package api

import (
	"net/http"
	"time"

	"newsbrief/config"
	stypes "newsbrief/shared/types"
	"newsbrief/types"

	"github.com/gin-gonic/gin"
)

// DebugSnapshot is the body of GET /api/debug.
type DebugSnapshot struct {
	Uptime        string                `json:"uptime"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Config        config.Presence       `json:"config"`
	Sources       []string              `json:"sources"`
	Pipeline      stypes.PipelineStatus `json:"pipeline"`
	Jobs          []types.JobRun        `json:"jobs"`
}

func RegisterDebugRoutes(r *gin.Engine, d Deps) {
	r.GET("/api/debug", func(c *gin.Context) {
		up := time.Since(d.Started)
		c.JSON(http.StatusOK, DebugSnapshot{
			Uptime:        up.Truncate(time.Second).String(),
			UptimeSeconds: int64(up.Seconds()),
			Config:        d.Presence,
			Sources:       d.Sources,
			Pipeline:      d.Jobs.Status(),
			Jobs:          d.Jobs.History(),
		})
	})
}

// RegisterHealthRoutes registers the liveness probe.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
