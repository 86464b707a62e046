package api

import (
	"context"
	"time"

	"newsbrief/config"
	"newsbrief/shared/logger"
	stypes "newsbrief/shared/types"
	"newsbrief/types"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BriefingReader is the read side of the store. None of its methods fail.
type BriefingReader interface {
	ReadLatest(ctx context.Context) []types.BriefingItem
	ReadArchive(ctx context.Context, displayDate time.Time) []types.BriefingItem
	ListAvailableDates(ctx context.Context) []string
}

// JobController is the orchestrator surface the API needs.
type JobController interface {
	Trigger(credential string, morning bool) (bool, error)
	Status() stypes.PipelineStatus
	History() []types.JobRun
	Location() *time.Location
}

// Deps are the router's collaborators.
type Deps struct {
	Briefings BriefingReader
	Jobs      JobController
	Presence  config.Presence
	Sources   []string
	Started   time.Time
	Gatherer  prometheus.Gatherer
	Logger    logger.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Started.IsZero() {
		d.Started = time.Now()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))

	RegisterBriefingRoutes(r, d.Briefings)
	RegisterJobRoutes(r, d.Jobs, d.Logger)
	RegisterDebugRoutes(r, d)
	RegisterHealthRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	return r
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("elapsed", time.Since(start)),
		)
	}
}
