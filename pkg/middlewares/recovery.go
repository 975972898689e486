package middlewares

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace/pkg/code"
	"marketplace/pkg/logger"
	"marketplace/pkg/prometheus"
	"marketplace/pkg/replace"
	"marketplace/pkg/resp"
	"marketplace/pkg/utils/v"
)

// Recovery turns a handler panic into a 500 and logs the request without its secrets.
func Recovery(c *gin.Context) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var brokenPipe bool
		if ne, ok := r.(*net.OpError); ok {
			var se *os.SyscallError
			if errors.As(ne.Err, &se) {
				msg := strings.ToLower(se.Error())
				brokenPipe = strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
			}
		}
		prometheus.PanicCounterVec.WithLabelValues(c.Request.Method, c.FullPath()).Inc()
		ctx := c.Request.Context()
		httpRequest, err := httputil.DumpRequest(c.Request, false)
		if err != nil {
			logger.From(ctx).Error("dump request", zap.Error(err))
		}
		headers := strings.Split(string(httpRequest), "\r\n")
		for idx, header := range headers {
			current := strings.SplitN(header, ":", 2)
			if current[0] == "Authorization" || current[0] == v.HeaderSecretCode {
				headers[idx] = current[0] + ": *"
			}
		}
		logger.From(ctx).Error("panic recovered",
			zap.String("request", replace.SecretReplaceStr(strings.Join(headers, "\r\n"))),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
		extra := fmt.Sprint(r)
		if brokenPipe {
			extra = fmt.Sprintf("broken pipe or connection reset by peer;%v", r)
			_ = c.Error(fmt.Errorf("%s", extra))
			c.Abort()
			return
		}
		resp.Error(c, code.ErrInternalServerError.WithResult(extra))
	}()
	c.Next()
}
