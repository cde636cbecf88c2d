package logger

import (
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 与 config.Log 对应；File 为空时只写控制台
type Options struct {
	Name       string // 进程名，写进每条日志的 app 字段
	Level      string // debug / info / warn / error
	JSON       bool
	File       string // 如 logs/ats.log，启用 lumberjack 切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New 返回 logger 以及退出前需要调用的 flush 函数
func New(o Options) (*zap.Logger, func()) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if o.Level != "" {
		if l, err := zapcore.ParseLevel(o.Level); err == nil {
			lvl.SetLevel(l)
		}
	}

	enc := encoder(o.JSON)
	// warn 以下走 stdout，warn 及以上走 stderr，方便容器日志分流
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return lvl.Enabled(l) && l < zapcore.WarnLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return lvl.Enabled(l) && l >= zapcore.WarnLevel })
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), high),
	}

	var rot *lumberjack.Logger
	if o.File != "" {
		rot = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    max(1, o.MaxSizeMB),
			MaxBackups: max(0, o.MaxBackups),
			MaxAge:     max(0, o.MaxAgeDays),
			Compress:   o.Compress,
		}
		// 文件里始终用 JSON，便于采集
		cores = append(cores, zapcore.NewCore(encoder(true), zapcore.AddSync(rot), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !o.JSON {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...)
	if o.Name != "" {
		l = l.With(zap.String("app", o.Name))
	}
	return l, func() {
		_ = l.Sync()
		if rot != nil {
			_ = rot.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// ToStdLogger 给 http.Server.ErrorLog / gorm logger 这类只认 *log.Logger 的组件用
func ToStdLogger(l *zap.Logger, level zapcore.Level) *log.Logger {
	std, err := zap.NewStdLogAt(l, level)
	if err != nil {
		return zap.NewStdLog(l)
	}
	return std
}

func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
