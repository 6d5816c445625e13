// Package api provides HTTP handlers for neighborrank.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/db"
	"github.com/persistorai/neighborrank/internal/dbpool"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. A nil pool reports the database
// as not configured.
func NewHealthHandler(pool *dbpool.Pool, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

type readinessResponse struct {
	Status        string            `json:"status"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. It fails until the database is
// reachable and every embedded migration has been applied.
func (h *HealthHandler) Readiness(c *gin.Context) {
	want := db.SchemaVersion()
	resp := readinessResponse{
		Status:        "ready",
		SchemaVersion: want,
		Checks:        map[string]string{"database": "ok", "schema": "ok"},
	}

	if h.pool == nil {
		resp.Status = "not_ready"
		resp.Checks["database"] = "not_configured"
		resp.Checks["schema"] = "unknown"
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.pool.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		resp.Status = "not_ready"
		resp.Checks["database"] = "error"
		resp.Checks["schema"] = "unknown"
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	if err := h.checkSchema(ctx, want); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		resp.Status = "not_ready"
		resp.Checks["schema"] = "error"
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) checkSchema(ctx context.Context, want int) error {
	var applied int64

	err := h.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied").Scan(&applied)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}

	if applied < int64(want) {
		return fmt.Errorf("schema at version %d, want %d", applied, want)
	}

	return nil
}
