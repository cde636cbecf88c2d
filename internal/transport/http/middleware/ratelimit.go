package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ats-backend/internal/core/ratelimit"
	resp "ats-backend/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "")
	}
}

// FixedWindow 每 IP 固定窗口限流；存储不可用时放行并告警
func FixedWindow(fw *ratelimit.FixedWindow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := fw.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limit store unavailable, admitting", zap.Error(err))
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			h.Set("Retry-After", strconv.Itoa(int(fw.Window.Seconds())))
			resp.Abort(c, http.StatusTooManyRequests, "")
			return
		}
		c.Next()
	}
}
