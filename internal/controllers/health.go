package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Ready answers 503 while any check fails.
func Ready(checks ...func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checks {
			if !check() {
				c.Status(http.StatusServiceUnavailable)
				return
			}
		}
		c.Status(http.StatusNoContent)
	}
}
