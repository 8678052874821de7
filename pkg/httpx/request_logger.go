package httpx

import (
	"net/http"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/gin-gonic/gin"
)

// служебные маршруты не логируются и не попадают в метрики латентности
func serviceRoute(route string) bool {
	return route == "/metrics" || route == "/ping"
}

// RequestLogger — одна запись на запрос. request_id, user_id и trace/span логгер берёт из контекста,
// поэтому в сообщении только то, чего там нет. Ответы 5xx пишутся уровнем warn.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if serviceRoute(route) {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx := c.Request.Context()
		status := c.Writer.Status()
		logf := log.Infof
		if status >= http.StatusInternalServerError {
			logf = log.Warnf
		}
		logf(ctx, "request method=%s route=%s status=%d ip=%s duration=%s size=%d",
			c.Request.Method, route, status, c.ClientIP(), time.Since(start), c.Writer.Size())
	}
}
