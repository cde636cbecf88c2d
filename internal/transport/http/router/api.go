package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ats-backend/internal/core/config"
	"ats-backend/internal/core/ratelimit"
	"ats-backend/internal/core/server"
	"ats-backend/internal/domain"
	"ats-backend/internal/service"
	"ats-backend/internal/transport/http/handler"
	mdw "ats-backend/internal/transport/http/middleware"
)

// Deps are the handles the API is built from; main constructs them.
type Deps struct {
	Log     *zap.Logger
	Config  *config.Config
	Auth    *service.AuthService
	Jobs    *service.JobService
	Apps    *service.ApplicationService
	Files   domain.FileStore
	Limiter *ratelimit.FixedWindow
	Health  map[string]handler.Check
}

func NewAPIEngine(d Deps) *gin.Engine {
	cfg := d.Config
	r := server.NewRouter(d.Log, server.Options{
		Mode:           ginMode(cfg.App.Env),
		AllowOrigin:    cfg.CORS.AllowOrigin,
		TrustedProxies: cfg.App.TrustedProxies,
	})

	// 中间件
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Metrics(),
		mdw.RateLimit(rate.Limit(cfg.Limit.RPS), cfg.Limit.Burst),
		mdw.ConcurrencyLimit(cfg.Limit.Concurrency, 2*time.Second),
		mdw.Timeout(time.Duration(cfg.Limit.TimeoutSec)*time.Second),
	)

	handler.MountHealth(r, d.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admission := mdw.FixedWindow(d.Limiter, d.Log)

	uploads := r.Group("/uploads", admission)
	handler.MountUploads(uploads, d.Files, d.Log)

	api := r.Group("/api", admission, mdw.MaxBodyBytes(cfg.Upload.MaxBytes))
	authed := api.Group("", mdw.Auth(d.Auth, d.Log))

	handler.MountAuth(api, authed, d.Auth, d.Log)
	handler.MountJobs(authed, d.Jobs, d.Log)
	handler.MountApplications(authed, d.Apps, d.Log)

	return r
}

func ginMode(env string) string {
	switch env {
	case "prod", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	}
	return ""
}
