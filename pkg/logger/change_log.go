package logger

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var debug uint32

// RegisterLog mounts GET/PUT /log on router to inspect and flip the debug switch.
func RegisterLog(router gin.IRouter) {
	router.GET("/log", getLog)
	router.PUT("/log", updateLog)
}

type Content struct {
	Debug *bool `json:"debug" binding:"required"`
}

// SetDebug forces every level on while enabled.
func SetDebug(enabled bool) {
	if enabled {
		atomic.StoreUint32(&debug, 1)
		return
	}
	atomic.StoreUint32(&debug, 0)
}

func getLog(c *gin.Context) {
	enabled := atomic.LoadUint32(&debug) == 1
	c.JSON(http.StatusOK, Content{Debug: &enabled})
}

func updateLog(c *gin.Context) {
	var req Content
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    "4000000001",
			"message": err.Error(),
			"result":  nil,
		})
		return
	}
	SetDebug(*req.Debug)
	c.Status(http.StatusNoContent)
}
