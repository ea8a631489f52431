package tracing

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deskshell/deskshell/internal/infrastructure/logging"
)

// Requests slower than this get a log line even at info level.
const slowRequestThreshold = 500 * time.Millisecond

// HTTPMiddleware assigns every request an id, echoes it on the response,
// and logs slow requests. Streaming endpoints are exempt from the slow
// log since their duration is the client's choice.
func HTTPMiddleware(log *logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Component("http")

	return func(c *gin.Context) {
		requestID := EnsureRequestID(c.GetHeader(Header))
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set(Header, requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		if elapsed > slowRequestThreshold && c.Writer.Header().Get("Content-Type") != "text/event-stream" {
			log.Warn("Slow diagnostics request",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("elapsed", elapsed),
			)
		}
	}
}
