package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/pkg/metrics"
)

// Metrics counts requests per route template, so /api/item/:sid is one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
