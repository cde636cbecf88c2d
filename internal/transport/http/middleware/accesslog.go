package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// query 中需要打码的 key（小写比较）
var sensitiveQuery = map[string]bool{
	"password": true, "newpassword": true, "token": true,
	"access_token": true, "email": true, "secret": true,
}

// 探活和抓取请求量大且无信息量，只在 debug 级别记录
var quietPaths = map[string]bool{"/health": true, "/metrics": true}

func maskQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	out := url.Values{}
	for k, v := range q {
		if sensitiveQuery[strings.ToLower(k)] {
			out[k] = []string{"****"}
			continue
		}
		out[k] = v
	}
	return out.Encode()
}

func AccessLog(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		if q := maskQuery(c.Request.URL.Query()); q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if u := CurrentUser(c); u != nil {
			fields = append(fields, zap.String("uid", u.ID))
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		lvl := zapcore.InfoLevel
		switch {
		case status >= 500:
			lvl = zapcore.ErrorLevel
		case status >= 400:
			lvl = zapcore.WarnLevel
		case quietPaths[c.Request.URL.Path]:
			lvl = zapcore.DebugLevel
		}
		l.Log(lvl, "http", fields...)
	}
}
