package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mdw "ats-backend/internal/transport/http/middleware"
)

type Options struct {
	Mode        string // gin 模式：debug / release / test
	AllowOrigin string // 前端地址；为空或 * 时放开所有来源
	// TrustedProxies 为空时 ClientIP 只取 socket 地址，忽略 X-Forwarded-For
	TrustedProxies []string
}

// NewRouter 基础引擎：panic 恢复 + CORS
func NewRouter(l *zap.Logger, o Options) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()
	proxies := o.TrustedProxies
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		l.Error("invalid trusted proxies, trusting none", zap.Strings("proxies", proxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(mdw.Recovery(l))
	r.Use(cors.New(corsConfig(o.AllowOrigin)))
	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", mdw.KeyRequestID},
		ExposeHeaders: []string{mdw.KeyRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{origin}
		cfg.AllowCredentials = true
	}
	return cfg
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
