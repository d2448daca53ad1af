// Package api wires the HTTP surface: the scan endpoint, the WebSocket
// stream, health, and metrics.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-scannerv1/internal/gateway"
	"market-scannerv1/internal/model"
)

// Scanner is the single operation the HTTP layer needs from the pipeline.
type Scanner interface {
	Scan(ctx context.Context) model.ScanReport
}

// NewRouter builds the gin engine. hub may be nil to disable /ws.
func NewRouter(scanner Scanner, hub *gateway.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	// Always 200: upstream flakiness degrades to an empty report, never
	// to a 5xx.
	r.GET("/scan", func(c *gin.Context) {
		c.JSON(http.StatusOK, scanner.Scan(c.Request.Context()))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			gateway.ServeWS(hub, c.Writer, c.Request)
		})
	}

	return r
}

// corsMiddleware mirrors the permissive CORS policy of the original
// service; the endpoint is advisory, read-only data.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
