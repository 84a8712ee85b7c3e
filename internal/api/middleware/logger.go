package middleware

import (
	"time"

	"battery-revenue/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request
func Logger(log *logger.Log) gin.HandlerFunc {
	entry := log.WithComponent("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
			"client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		switch {
		case c.Writer.Status() >= 500:
			entry.WithFields(fields).Error("request")
		case c.Writer.Status() >= 400:
			entry.WithFields(fields).Warn("request")
		default:
			entry.WithFields(fields).Info("request")
		}
	}
}
