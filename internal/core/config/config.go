package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
	// TrustedProxies: 允许其 X-Forwarded-For 生效的代理 IP/CIDR；为空时只认 socket 地址
	TrustedProxies []string
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 非空时启用 lumberjack 切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	ResetTokenTTLMin  int
}

type Auth struct {
	// StrictSessions: 鉴权时同时校验 Redis 中的会话，登出立即失效
	StrictSessions bool
}

type Redis struct {
	URL      string `mapstructure:"url"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type CORS struct {
	AllowOrigin string
}

type Upload struct {
	Dir      string
	MaxBytes int64
}

// Limit 准入控制：固定窗口（每 IP）+ 全局令牌桶 + 并发上限
type Limit struct {
	Store       string // redis | memory
	WindowMin   int
	Max         int
	RPS         float64
	Burst       int
	Concurrency int64
	TimeoutSec  int
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	Auth   Auth
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	CORS   CORS
	Upload Upload
	Limit  Limit
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ats-backend")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readTimeoutSec", 15)
	v.SetDefault("app.http.writeTimeoutSec", 30)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.trustedProxies", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 7)
	v.SetDefault("log.maxAgeDays", 30)

	v.SetDefault("jwt.issuer", "ats-backend")
	v.SetDefault("jwt.accessTokenTTLMin", 60)
	v.SetDefault("jwt.resetTokenTTLMin", 60)
	v.SetDefault("auth.strictSessions", true)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxOpenConns", 50)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.maxBytes", 16<<20)

	v.SetDefault("limit.store", "redis")
	v.SetDefault("limit.windowMin", 15)
	v.SetDefault("limit.max", 100)
	v.SetDefault("limit.rps", 200)
	v.SetDefault("limit.burst", 400)
	v.SetDefault("limit.concurrency", 300)
	v.SetDefault("limit.timeoutSec", 0)
}

// 兼容原部署使用的环境变量名
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("db.dsn", "APP_DB_DSN", "DATABASE_URL", "MONGODB_URI")
	_ = v.BindEnv("redis.url", "APP_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("jwt.secret", "APP_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("cors.allowOrigin", "APP_CORS_ALLOWORIGIN", "FRONTEND_URL")
	_ = v.BindEnv("app.http.port", "APP_APP_HTTP_PORT", "PORT")
}

// Load 读取 yaml（可缺省）+ 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn (DATABASE_URL) is required")
	}
	if c.Limit.WindowMin <= 0 || c.Limit.Max <= 0 {
		return errors.New("limit.windowMin and limit.max must be positive")
	}
	if c.Limit.Store != "redis" && c.Limit.Store != "memory" {
		return fmt.Errorf("limit.store %q: want redis or memory", c.Limit.Store)
	}
	return nil
}
