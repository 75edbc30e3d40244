package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/houzhh15/roadmap-console/cmd/console/internal/metrics"
	"github.com/houzhh15/roadmap-console/pkg/logger"
)

// RequestLogger 为每个控制台请求记录一行 console_request 日志并注入 request_id。
// 日志包含路由模板、搜索词与鉴权用户；5xx 记为 error，4xx 记为 warn。
// 客户端提供的 X-Request-ID 会被沿用。log 为 nil 时使用全局 logger。
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, c.Request.Method, status, elapsed)

		attrs := []any{
			"rid", reqID,
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
		}
		if q := c.Query("q"); q != "" {
			attrs = append(attrs, "q", q)
		}
		if user := c.GetString("user"); user != "" {
			attrs = append(attrs, "user", user)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		l := log
		if l == nil {
			l = logger.L()
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		l.Log(c.Request.Context(), level, "console_request", attrs...)
	}
}
