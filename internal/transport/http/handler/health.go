package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Check reports one dependency; a "status" other than "up" marks it down.
type Check func(ctx context.Context) map[string]string

func MountHealth(r gin.IRoutes, checks map[string]Check) {
	r.GET("/health", func(c *gin.Context) {
		code, status := http.StatusOK, "up"
		out := gin.H{}
		for name, check := range checks {
			res := check(c.Request.Context())
			if res["status"] != "up" {
				code, status = http.StatusServiceUnavailable, "down"
			}
			out[name] = res
		}
		out["status"] = status
		c.JSON(code, out)
	})
}
