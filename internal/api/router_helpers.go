package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/middleware"
)

// getTenantID extracts the authenticated tenant ID from the Gin context
// and validates it is a proper UUID.
func getTenantID(c *gin.Context) string {
	tid := c.GetString(middleware.TenantIDKey)

	if _, err := uuid.Parse(tid); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid tenant id")

		return ""
	}

	return tid
}

// respondBindError maps a JSON binding failure to 413 or 400.
func respondBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")

		return
	}

	respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if tid := c.GetString(middleware.TenantIDKey); tid != "" {
			fields["tenant_id"] = tid
		}
		if v := c.Writer.Header().Get(HeaderRankState); v != "" {
			fields["rank_state"] = v
		}
		log.WithFields(fields).Info("request")
	}
}
