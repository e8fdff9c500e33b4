package middleware

import (
	"time"

	"github.com/azvaska/flight-gorilla-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once the handler chain has run
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		ua := user_agent.New(utils.GetUserAgent(c))
		browser, version := ua.Browser()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         utils.GetRealIP(c),
			"browser":    browser + " " + version,
			"os":         ua.OS(),
			"mobile":     ua.Mobile(),
		}
		if userID := GetUserID(c); userID != nil {
			fields["user_id"] = userID.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
