// Package handlers holds the plain HTTP handlers of the keep-alive
// surface. The bot's real work happens in background jobs and the
// interactions webhook; these endpoints exist so hosting platforms and
// uptime monitors can observe the process.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PendingCounter reports how many requests currently await maturity.
// Satisfied by *ledger.Ledger.
type PendingCounter interface {
	Len() int
}

// Root answers the hosting platform's keep-alive probe with a static body,
// mirroring what uptime monitors were historically pointed at.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "Discord Bot is running!")
}

// Healthz reports liveness plus the size of the pending-request ledger.
func Healthz(pending PendingCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"pending": pending.Len(),
		})
	}
}
