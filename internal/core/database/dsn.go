package database

import (
	"fmt"
	"net/url"
	"strings"
)

// normalizeMySQLDSN 把 mysql:// / jdbc:mysql:// 形式转换成 go-sql-driver 的
// user:pass@tcp(host:port)/db?... 形式；已经是驱动格式的 DSN 原样返回。
func normalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in
	}

	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	q := u.Query()
	if v := q.Get("user"); v != "" {
		user = v
	}
	if v := q.Get("password"); v != "" {
		pass = v
	}
	q.Del("user")
	q.Del("password")
	if userOverride != "" {
		user = userOverride
	}
	if passOverride != "" {
		pass = passOverride
	}

	// JDBC 参数 → go-sql-driver 参数
	if v := q.Get("characterEncoding"); v != "" && q.Get("charset") == "" {
		q.Set("charset", v)
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		q.Set("loc", tz)
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		switch v {
		case "true", "1":
			q.Set("tls", "true")
		case "skip-verify", "preferred":
			q.Set("tls", v)
		default:
			q.Set("tls", "false")
		}
	}
	for _, k := range []string{"characterEncoding", "serverTimezone", "useSSL", "useUnicode", "zeroDateTimeBehavior"} {
		q.Del(k)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}
