package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count, latency and in-flight requests. Paths are
// labelled by route template so result ids do not create new series.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		active := m.HTTPActiveRequests.WithLabelValues()
		active.Inc()
		start := time.Now()

		c.Next()

		active.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
