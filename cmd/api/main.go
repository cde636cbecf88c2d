package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"ats-backend/internal/core/auth"
	"ats-backend/internal/core/cache"
	"ats-backend/internal/core/config"
	"ats-backend/internal/core/database"
	"ats-backend/internal/core/logger"
	"ats-backend/internal/core/ratelimit"
	"ats-backend/internal/core/server"
	"ats-backend/internal/domain"
	"ats-backend/internal/repo"
	"ats-backend/internal/service"
	"ats-backend/internal/storage"
	"ats-backend/internal/transport/http/handler"
	"ats-backend/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, cleanup := newLogger(cfg)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, &domain.User{}, &domain.Job{}, &domain.Application{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	rdb := mustOpenRedis(cfg, log)

	files, err := storage.NewLocalStore(cfg.Upload.Dir, log.Named("storage"))
	if err != nil {
		log.Fatal("upload dir", zap.Error(err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		Leeway: 5 * time.Second,
	}
	users, jobs, apps := repo.NewUserRepo(db), repo.NewJobRepo(db), repo.NewApplicationRepo(db)
	authSvc := service.NewAuthService(users, cache.NewSessions(rdb), jwter, log.Named("auth"), service.AuthOptions{
		StrictSessions: cfg.Auth.StrictSessions,
		ResetTTL:       time.Duration(cfg.JWT.ResetTokenTTLMin) * time.Minute,
	})
	appSvc := service.NewApplicationService(apps, jobs, files, log.Named("applications"))
	jobSvc := service.NewJobService(jobs, appSvc, log.Named("jobs"))

	var store ratelimit.Store = ratelimit.RedisStore{RDB: rdb}
	if cfg.Limit.Store == "memory" {
		store = ratelimit.NewMemoryStore()
	}

	r := router.NewAPIEngine(router.Deps{
		Log:    log,
		Config: cfg,
		Auth:   authSvc,
		Jobs:   jobSvc,
		Apps:   appSvc,
		Files:  files,
		Limiter: &ratelimit.FixedWindow{
			Store:  store,
			Limit:  cfg.Limit.Max,
			Window: time.Duration(cfg.Limit.WindowMin) * time.Minute,
			Prefix: "ratelimit:",
		},
		Health: map[string]handler.Check{
			"db":    func(ctx context.Context) map[string]string { return database.Health(ctx, db) },
			"redis": func(ctx context.Context) map[string]string { return cache.Health(ctx, rdb) },
		},
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
	srv.ErrorLog = logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("ats api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.Bool("strict_sessions", cfg.Auth.StrictSessions),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ats api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		log.Warn("redis close", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("db close", zap.Error(err))
	}
	log.Info("ats api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	return logger.New(logger.Options{
		Name:       cfg.App.Name,
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Writer:             logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func mustOpenRedis(cfg *config.Config, l *zap.Logger) *redis.Client {
	rdb, err := cache.NewClient(cache.Options{
		URL:      cfg.Redis.URL,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		l.Fatal("redis config", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// 会话写入会失败，但仍允许启动以便 /health 暴露问题
		l.Warn("redis unreachable", zap.Error(err))
	}
	return rdb
}
