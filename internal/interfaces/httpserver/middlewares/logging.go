package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bookdrop/internal/infrastructure/metrics"
)

// Logging emits one structured access log line per request and records the
// request metrics.
func Logging(log zerolog.Logger) gin.HandlerFunc {
	accessLog := log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			// NoRoute traffic (the download gate) has no route pattern.
			endpoint = "fallthrough"
		}
		status := c.Writer.Status()
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(status), duration.Seconds())

		accessLog.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Str("request_id", GetRequestID(c)).
			Msg("request")
	}
}
