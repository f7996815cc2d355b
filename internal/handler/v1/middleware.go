package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmehra2102/codeblue/pkg/auth"
	"github.com/dmehra2102/codeblue/pkg/metrics"
)

const sessionIDKey = "session_id"

// SessionAuth validates the bearer session token and stores the
// session ID on the request context. Only the start endpoint is open;
// every other game route goes through here.
func SessionAuth(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing session token"})
			return
		}

		sessionID, err := manager.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session token"})
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

func sessionID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(sessionIDKey).(uuid.UUID)
	return id
}

// Metrics records request counts, latency, and in-flight gauge per
// route template.
func Metrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.InFlightGauge.Inc()

		c.Next()

		m.InFlightGauge.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
