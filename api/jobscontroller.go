package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"newsbrief/orchestrator"
	"newsbrief/shared/logger"

	"github.com/gin-gonic/gin"
)

// RegisterJobRoutes registers the on-demand trigger.
func RegisterJobRoutes(r *gin.Engine, jobs JobController, log logger.Logger) {
	r.POST("/api/jobs/trigger", func(c *gin.Context) {
		handleTrigger(c, jobs, log)
	})
}

// credential reads a bearer token exactly as sent, falling back to X-Cron-Secret.
func credential(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
	}
	return c.GetHeader("X-Cron-Secret")
}

// handleTrigger starts a job asynchronously and returns 202 Accepted immediately.
func handleTrigger(c *gin.Context, jobs JobController, log logger.Logger) {
	morning, ok := orchestrator.ParseSession(c.Query("session"), time.Now().In(jobs.Location()))
	if !ok {
		// unknown session values fall back to the clock
		morning = orchestrator.IsMorning(time.Now().In(jobs.Location()))
	}

	started, err := jobs.Trigger(credential(c), morning)
	if errors.Is(err, orchestrator.ErrUnauthorized) {
		log.Warn("Rejected job trigger", logger.String("remote", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		c.JSON(http.StatusAccepted, gin.H{"status": "not started", "message": err.Error()})
		return
	}
	if !started {
		c.JSON(http.StatusAccepted, gin.H{"status": "already running", "message": "a job is in progress; request ignored"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "morning": morning})
}
