package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "ats-backend/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数；排队超过 wait 返回 503
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			err := sem.Acquire(ctx, 1)
			cancel()
			if err != nil {
				resp.Abort(c, http.StatusServiceUnavailable, "")
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
