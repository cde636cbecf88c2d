package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const KeyRequestID = "X-Request-ID"

// 上游 ID 只接受可打印的短标识，防止日志注入
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID 透传上游的请求 ID，不合法时重新生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(KeyRequestID)
		if !validRequestID.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Header(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
