package resp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success answers 200 with data, or 204 when there is nothing to return.
func Success(c *gin.Context, data ...interface{}) {
	if len(data) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, data[0])
}

// Created answers 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// List is the envelope of paged collections.
type List struct {
	Total int64       `json:"total"`
	Items interface{} `json:"items"`
}
