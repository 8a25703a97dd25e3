package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/observability"
	"github.com/franciscosanchezn/ia-platform-api/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit enforces the limiter per client IP. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, log *logrus.Logger, events AuthEvents) gin.HandlerFunc {
	if events == nil {
		events = noEvents{}
	}

	return func(c *gin.Context) {
		key := KeyByIP(c)

		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			events.AuthEvent(observability.EventRateLimit, observability.OutcomeRateLimited)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.Failure(
				"Too many requests",
				"Too many requests from this IP, please try again later.",
			))
			return
		}

		c.Next()
	}
}

// KeyByIP keys the limiter on the client address
func KeyByIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}
