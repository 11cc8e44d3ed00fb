package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/logger"
)

// ActorHeader lets API clients name who is making a change
const ActorHeader = "X-Actor"

// DefaultActor is recorded for API requests that do not name an actor
const DefaultActor = "api"

// RequestLoggingMiddleware logs all HTTP requests and tags the request
// context with the request ID, actor and client IP for audit logging
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate unique request ID
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		// Add request ID to response headers for traceability
		c.Writer.Header().Set("X-Request-ID", requestID)

		startTime := time.Now()

		method := c.Request.Method
		path := c.Request.URL.Path
		queryParams := c.Request.URL.RawQuery
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		actor := c.GetHeader(ActorHeader)
		if actor == "" || len(actor) > 64 {
			actor = DefaultActor
		}

		ctx := audit.WithActor(c.Request.Context(), actor)
		ctx = audit.WithIP(ctx, clientIP)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(startTime)
		statusCode := c.Writer.Status()

		logFields := []interface{}{
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP,
			"user_agent", userAgent,
			"actor", actor,
			"response_size", c.Writer.Size(),
		}

		if queryParams != "" {
			logFields = append(logFields, "query", queryParams)
		}

		// Log based on status code
		if statusCode >= 500 {
			logger.Error("HTTP request failed", logFields...)
		} else if statusCode >= 400 {
			logger.Warn("HTTP request client error", logFields...)
		} else {
			logger.Info("HTTP request", logFields...)
		}
	}
}
