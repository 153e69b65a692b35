// Package api serves the keepalive/health HTTP surface. Hosting platforms
// ping it to keep the process alive; operators read /api/status.
package api

import (
	"github.com/gin-gonic/gin"

	"tweetbot/store"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(tracker *Tracker, st *store.Store) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	RegisterStatusRoutes(r, tracker, st)
	return r
}
