package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

// RequestID propagates the caller's request id or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(ContextRequestID, id)

		c.Next()
	}
}

// RequestLogger writes one line per request. Failed requests are logged at warn level with more detail.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": RequestIDFrom(c),
		}
		if id, ok := c.Get(ContextUserID); ok {
			fields["user_id"] = id
		}

		if status >= http.StatusBadRequest {
			fields["user_agent"] = c.Request.UserAgent()
			fields["query"] = c.Request.URL.RawQuery
			log.WithFields(fields).Warn("HTTP request")
			return
		}
		log.WithFields(fields).Info("HTTP request")
	}
}
