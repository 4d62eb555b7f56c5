package middleware

import (
	"net/http"
	"strconv"
	"time"

	"bazaar/backend/pkg/logger"
	"bazaar/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const loggerKey = "request_logger"

// Logging assigns a correlation id, logs every request when it completes and
// records the request metrics. Paths are recorded as route templates.
func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Header("X-Correlation-ID", correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Set(loggerKey, log)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", duration),
			zap.String("correlation_id", correlationID),
			zap.String("user_id", UserID(c)),
			zap.String("remote_addr", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if status >= http.StatusInternalServerError {
			log.Error("request completed", fields...)
		} else {
			log.Info("request completed", fields...)
		}

		metrics.RecordRequest(c.Request.Method, path, strconv.Itoa(status), duration.Seconds())
	}
}

// Logger returns the request-scoped logger, carrying the correlation id and
// the caller once Auth has run.
func Logger(c *gin.Context) *logger.Logger {
	base := logger.Global()
	if v, ok := c.Get(loggerKey); ok {
		base = v.(*logger.Logger)
	}
	return base.WithRequest(c.GetString(CorrelationIDKey), UserID(c))
}
