package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace/pkg/logger"
)

// Log writes one access line per request.
func Log(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	if raw := c.Request.URL.RawQuery; raw != "" {
		path = path + "?" + raw
	}

	c.Next()

	fields := []zap.Field{
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.Duration("latency", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
		fields = append(fields, zap.String("error", msg))
	}
	logger.From(c.Request.Context()).Info("access", fields...)
}
