// Package http assembles the Gin engine: keep-alive endpoints, the
// Prometheus scrape target, and (when configured) the Discord
// interactions webhook.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tbourn/go-request-bot/internal/http/handlers"
	"github.com/tbourn/go-request-bot/internal/http/middleware"
)

// Options carries the handlers the router mounts. Interactions may be nil
// when no public key is configured; the webhook route is then omitted.
type Options struct {
	Pending      handlers.PendingCounter
	Interactions gin.HandlerFunc
}

// NewRouter builds the engine with the shared middleware chain and all
// routes registered.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(),
	)

	r.GET("/", handlers.Root)
	r.GET("/healthz", handlers.Healthz(opts.Pending))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Interactions != nil {
		r.POST("/interactions", opts.Interactions)
	}

	return r
}
