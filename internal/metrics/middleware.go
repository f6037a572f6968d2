package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts and times every request. Routes are labelled by their
// gin pattern so ids do not explode label cardinality.
func RequestMetrics(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.GaugeRequests.Inc()
		defer m.GaugeRequests.Dec()

		begin := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HistogramRequestDuration.With(prometheus.Labels{
			"route":       route,
			"method":      c.Request.Method,
			"status_code": status,
		}).Observe(time.Since(begin).Seconds())
		m.CounterRequests.With(prometheus.Labels{
			"method": c.Request.Method,
			"status": status,
		}).Inc()
	}
}

// Recovery turns panics into 500s and counts them.
func Recovery(m *Manager) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, _ any) {
		m.CounterHandleRequestPanic.Inc()
		c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
	})
}
