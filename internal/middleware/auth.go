package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// TenantIDKey is the gin context key holding the authenticated tenant.
	TenantIDKey = "tenant_id"

	// authTimingFloor is the minimum duration of a rejected request so valid
	// and invalid keys cannot be told apart by latency.
	authTimingFloor = 50 * time.Millisecond
)

// TenantLookup resolves an API key to its tenant ID.
type TenantLookup interface {
	GetTenantByAPIKey(ctx context.Context, apiKey string) (string, error)
}

// AuthMiddleware authenticates requests by Bearer token and stores the tenant
// under TenantIDKey. A nil guard disables failure tracking.
func AuthMiddleware(lookup TenantLookup, guard *BruteForceGuard, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() != http.StatusUnauthorized {
				return
			}
			if elapsed := time.Since(start); elapsed < authTimingFloor {
				time.Sleep(authTimingFloor - elapsed)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		tenantID, err := lookup.GetTenantByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logAuthFailure(log, c, apiKey)

			if guard != nil {
				guard.RecordFailure(apiKey)
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		}

		if guard != nil {
			guard.ResetKey(apiKey)
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header,
// or "" when the header is absent or malformed.
func ExtractBearerToken(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}

	return strings.TrimSpace(token)
}

func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string) {
	prefix := apiKey
	if len(prefix) > 4 {
		prefix = prefix[:4] + "..."
	}

	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": prefix,
	}).Warn("authentication failed: invalid api key")
}
