package httpx

import (
	"strconv"
	"time"

	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// RequestMetrics — латентность запросов по шаблону маршрута (не по сырому пути,
// чтобы id не раздували кардинальность). Неизвестные маршруты идут под меткой "unmatched".
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if serviceRoute(route) {
			return
		}
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
