// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler reports whether the service can do useful work:
// the database must answer a ping, and the response also exposes the
// background scheduler state so an operator can spot a stopped worker.
func (h *Handler) HealthCheckHandler(c *gin.Context) {
	scheduler := "stopped"
	if h.Worker != nil && h.Worker.IsActive() {
		scheduler = "running"
	}

	if h.DBConn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "error",
			"message":   "database connection not initialized",
			"database":  "unavailable",
			"scheduler": scheduler,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DBConn.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "error",
			"message":   "database ping failed: " + err.Error(),
			"database":  "unreachable",
			"scheduler": scheduler,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "ok",
		"scheduler": scheduler,
	})
}
