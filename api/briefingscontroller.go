package api

import (
	"net/http"
	"time"

	"newsbrief/types"

	"github.com/gin-gonic/gin"
)

// RegisterBriefingRoutes registers the read endpoints. Every one answers 200.
func RegisterBriefingRoutes(r *gin.Engine, reader BriefingReader) {
	g := r.Group("/api/briefings")
	g.GET("/latest", func(c *gin.Context) {
		c.JSON(http.StatusOK, reader.ReadLatest(c.Request.Context()))
	})
	g.GET("/archive/:date", func(c *gin.Context) {
		day, err := time.Parse(types.DisplayDateLayout, c.Param("date"))
		if err != nil {
			c.JSON(http.StatusOK, []types.BriefingItem{})
			return
		}
		c.JSON(http.StatusOK, reader.ReadArchive(c.Request.Context(), day))
	})
	g.GET("/dates", func(c *gin.Context) {
		c.JSON(http.StatusOK, reader.ListAvailableDates(c.Request.Context()))
	})
}
