package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mailgun/ttlmap"

	"marketplace/pkg/code"
	"marketplace/pkg/limit"
	"marketplace/pkg/resp"
	"marketplace/pkg/utils/v"
)

// RateLimit throttles each caller with its own bucket from rlf. Buckets idle for
// a minute are dropped. Anonymous requests pass.
func RateLimit(rlf func(key string) limit.RateLimiter) gin.HandlerFunc {
	buckets, err := ttlmap.NewConcurrent(65536)
	if err != nil {
		panic(err)
	}
	return func(c *gin.Context) {
		source := c.GetHeader(v.HeaderUserID)
		if source == "" {
			c.Next()
			return
		}
		var bucket limit.RateLimiter
		if rlSource, exists := buckets.Get(source); exists {
			bucket = rlSource.(limit.RateLimiter)
		} else {
			bucket = rlf(source)
		}
		// Set on every hit so the expiry tracks activity.
		if err := buckets.Set(source, bucket, 60); err != nil {
			resp.Error(c, code.ErrInternalServerError.WithResult("could not insert or update bucket"))
			return
		}
		if !bucket.TryAccept() {
			resp.Error(c, code.ErrTooManyRequests.WithResult(source))
			return
		}
		c.Next()
	}
}
