package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// RequestLogger journalise chaque requête (niveau DEBUG, WARN pour les 5xx)
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := "DEBUG"
		if c.Writer.Status() >= 500 {
			level = "WARN"
		}
		logs.LogJSON(level, "http request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"remote":      c.ClientIP(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"size":        c.Writer.Size(),
		})
	}
}
