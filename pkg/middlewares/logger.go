package middlewares

import (
	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"marketplace/pkg/logger"
	"marketplace/pkg/utils/v"
)

// SetLogger attaches l to the request context, tagged with the trace id and
// the caller. A missing X-Trace-Id is generated and echoed back.
func SetLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(v.HeaderTraceID)
		if traceID == "" {
			traceID = uuid.NewV4().String()
			c.Request.Header.Set(v.HeaderTraceID, traceID)
		}
		if c.Writer.Header().Get(v.HeaderTraceID) == "" {
			c.Writer.Header().Set(v.HeaderTraceID, traceID)
		}
		fields := []zap.Field{zap.String("trace_id", traceID)}
		if userID := c.GetHeader(v.HeaderUserID); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), l.With(fields...)))
		c.Next()
	}
}
