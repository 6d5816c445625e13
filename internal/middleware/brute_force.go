package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

const (
	bruteForceMaxAttempts = 5
	bruteForceWindow      = 15 * time.Minute
	bruteForceLockout     = 5 * time.Minute
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks per-key-hash authentication failures and blocks
// keys that exceed the failure threshold within the tracking window.
// Records expire with the window; the oldest are evicted past the cap.
type BruteForceGuard struct {
	mu      sync.Mutex
	records *expirable.LRU[string, *failureRecord]
	log     *logrus.Logger
}

// NewBruteForceGuard creates a new guard.
func NewBruteForceGuard(log *logrus.Logger) *BruteForceGuard {
	return &BruteForceGuard{
		records: expirable.NewLRU[string, *failureRecord](bruteForceMaxRecords, nil, bruteForceWindow),
		log:     log,
	}
}

// IsBlocked returns true if the given API key hash is currently locked out.
func (g *BruteForceGuard) IsBlocked(apiKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records.Peek(hashKey(apiKey))
	if !ok {
		return false
	}

	return !rec.lockedAt.IsZero() && time.Since(rec.lockedAt) < bruteForceLockout
}

// RecordFailure records a failed authentication attempt for the given API key.
func (g *BruteForceGuard) RecordFailure(apiKey string) {
	kh := hashKey(apiKey)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records.Get(kh)
	if !ok || now.Sub(rec.firstFail) > bruteForceWindow {
		g.records.Add(kh, &failureRecord{attempts: 1, firstFail: now})
		return
	}

	rec.attempts++
	if rec.attempts >= bruteForceMaxAttempts {
		rec.lockedAt = now
		// Re-adding restarts the TTL so the record outlives the lockout.
		g.records.Add(kh, rec)
		g.log.WithField("key_hash", kh[:16]+"...").Warn("api key locked out due to repeated auth failures")
	}
}

// ResetKey clears failure tracking for a key (call on successful auth).
func (g *BruteForceGuard) ResetKey(apiKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.records.Remove(hashKey(apiKey))
}

// BruteForceMiddleware returns middleware that blocks requests from locked-out API keys.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			c.Next()
			return
		}
		if guard.IsBlocked(apiKey) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed authentication attempts")
			return
		}

		c.Next()
	}
}
