package resp

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace/pkg/code"
	"marketplace/pkg/logger"
)

type response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
}

// Error aborts with the ErrorCode found in the chain of err, or ErrCodeUnknown.
func Error(c *gin.Context, err error) {
	e, ok := code.As(err)
	if !ok {
		logger.From(c.Request.Context()).Error("response failed", zap.Error(err))
		c.AbortWithStatusJSON(code.ErrCodeUnknown.StatusCode(), &response{
			Code:    fmt.Sprintf("%3d%s", code.ErrCodeUnknown.StatusCode(), code.ErrCodeUnknown.Code()),
			Message: code.ErrCodeUnknown.Message(),
			Result:  err.Error(),
		})
		return
	}
	if e.StatusCode() >= 500 {
		logger.From(c.Request.Context()).Error("response failed", zap.Error(err))
	} else {
		logger.From(c.Request.Context()).Info("request refused", zap.Error(err))
	}
	c.AbortWithStatusJSON(e.StatusCode(), &response{
		Code:    fmt.Sprintf("%3d%s", e.StatusCode(), e.Code()),
		Message: e.Message(),
		Result:  e.Result(),
	})
}

// ErrorParam answers ErrInvalidParam carrying the binding error.
func ErrorParam(c *gin.Context, err error) {
	Error(c, code.ErrInvalidParam.WithResult(err.Error()))
}
