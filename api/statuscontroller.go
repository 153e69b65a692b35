package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tweetbot/store"
)

// RegisterStatusRoutes registers the daemon status endpoints.
func RegisterStatusRoutes(r *gin.Engine, tracker *Tracker, st *store.Store) {
	r.GET("/api/status", func(c *gin.Context) {
		status := tracker.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":          status,
			"publish_records": st.Count(),
			"resurface_state": st.ResurfaceState(),
		})
	})

	r.GET("/api/records", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"records": st.AllRecords()})
	})
}
