package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/internal/ctxw"
	"marketplace/pkg/code"
	"marketplace/pkg/resp"
	"marketplace/pkg/utils/v"
)

// CheckHeaders requires the caller identity set by the gateway and copies it into the request context.
func CheckHeaders(c *gin.Context) {
	userID := c.GetHeader(v.HeaderUserID)
	if userID == "" {
		resp.Error(c, code.ErrInvalidParam.WithResult(fmt.Sprintf("%s header is required", v.HeaderUserID)))
		return
	}
	var approver ctxw.Approver
	for _, role := range strings.Split(c.GetHeader(v.HeaderApprover), ",") {
		switch strings.TrimSpace(role) {
		case v.ApproverConsumer:
			approver.Consumer = true
		case v.ApproverProvider:
			approver.Provider = true
		}
	}
	ctx := ctxw.SetUserID(c.Request.Context(), userID)
	ctx = ctxw.SetApprover(ctx, approver)
	if traceID := c.GetHeader(v.HeaderTraceID); traceID != "" {
		ctx = ctxw.SetTraceID(ctx, traceID)
	}
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
