package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/logger"
)

const (
	// HeaderAPIKey carries the key. "Authorization: Bearer <key>" works too.
	HeaderAPIKey = "X-API-Key"

	// ContextKeyAPIKey is the gin context key for the authenticated key
	ContextKeyAPIKey = "api_key"
)

// APIKeyMiddleware rejects requests without a valid key. The key name
// becomes the audit actor; read-only keys may only read.
func APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value := extractKey(c)
		if value == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "API key required",
			})
			c.Abort()
			return
		}

		key, err := Authenticate(value)
		if err != nil {
			status, msg := http.StatusUnauthorized, "invalid API key"
			if errors.Is(err, ErrExpiredKey) {
				msg = "API key expired"
			} else if !errors.Is(err, ErrInvalidKey) {
				logger.Error("API key lookup failed", "error", err)
				status, msg = http.StatusInternalServerError, "internal server error"
			}
			c.JSON(status, gin.H{"error": msg})
			c.Abort()
			return
		}

		if key.ReadOnly && !isRead(c.Request.Method) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "API key is read-only",
			})
			c.Abort()
			return
		}

		if err := db.UpdateAPIKeyLastUsed(key.ID); err != nil {
			logger.Warn("Failed to record API key use", "key_id", key.KeyID, "error", err)
		}

		c.Set(ContextKeyAPIKey, key)
		c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), key.Name))

		c.Next()
	}
}

// GetAPIKey returns the key that authenticated the request
func GetAPIKey(c *gin.Context) *db.APIKey {
	if v, exists := c.Get(ContextKeyAPIKey); exists {
		if key, ok := v.(*db.APIKey); ok {
			return key
		}
	}
	return nil
}

func extractKey(c *gin.Context) string {
	if key := c.GetHeader(HeaderAPIKey); key != "" {
		return key
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
