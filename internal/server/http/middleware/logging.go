package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request after it completes, including the
// authenticated caller when the auth middleware stored one.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.Int("bytes", c.Writer.Size()),
		}
		if caller := c.GetString(CallerContextKey); caller != "" {
			attrs = append(attrs, slog.String("caller", caller))
		}
		logger.Info("http request", attrs...)
	}
}
