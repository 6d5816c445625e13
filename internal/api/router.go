package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/dbpool"
	"github.com/persistorai/neighborrank/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log          *logrus.Logger
	Pool         *dbpool.Pool
	Rank         RankService
	Edges        EdgeService
	TenantLookup middleware.TenantLookup
	CORSOrigins  []string
	Version      string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{HeaderRankState, HeaderRankVisited, middleware.RequestIDHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	rank := NewRankHandler(deps.Rank, log)
	edges := NewEdgeHandler(deps.Edges, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	guard := middleware.NewBruteForceGuard(log)
	api.Use(middleware.BruteForceMiddleware(guard))
	api.Use(middleware.AuthMiddleware(middleware.NewCachedTenantLookup(deps.TenantLookup), guard, log))

	api.POST("/graph/neighborrank", rank.NeighborRank)
	api.POST("/graph/edges", edges.Upsert)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
