package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
)

// requestLogger logs one line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Named("api").Debugw("http request",
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
