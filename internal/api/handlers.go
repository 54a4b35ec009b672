// Package api exposes the HTTP trigger surface for the sync job.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ASAPRATAJ/OrderAutomation/internal/db"
	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/syncer"
)

// Handler holds the dependencies shared by the HTTP endpoints.
type Handler struct {
	database *db.Database
	syncer   *syncer.Syncer
}

// NewHandler creates a new Handler instance.
func NewHandler(database *db.Database, s *syncer.Syncer) *Handler {
	return &Handler{database: database, syncer: s}
}

// TriggerSync runs one sync cycle and reports its stats. Cycles are
// serialized inside the syncer, so overlapping triggers queue up.
func (h *Handler) TriggerSync(c *gin.Context) {
	stats, err := h.syncer.Run(c.Request.Context())
	if err != nil {
		logging.LogKV("error", "sync cycle failed", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health verifies the source database is reachable.
func (h *Handler) Health(c *gin.Context) {
	if h.database == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database not initialized"})
		return
	}
	if err := h.database.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
