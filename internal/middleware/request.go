package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/metrics"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestLogger assigns a request id, stores a request-scoped logger in the
// request context and logs one line per request. m may be nil.
func RequestLogger(base *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		log := base.With(slog.String("request_id", requestID))
		c.Request = c.Request.WithContext(logctx.Into(c.Request.Context(), log))

		c.Next()

		status := c.Writer.Status()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery turns a panic into a JSON 500 and logs it with the request logger.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logctx.From(c.Request.Context()).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}
