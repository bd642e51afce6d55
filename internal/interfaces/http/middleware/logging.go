package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// RequestLogger logs each request once it completes, tiered by status.
func RequestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Errorw("request completed", fields...)
		case status >= 400:
			log.Warnw("request completed", fields...)
		default:
			log.Infow("request completed", fields...)
		}
	}
}
