package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/persistorai/neighborrank/internal/dbpool"
)

// TenantStore handles tenant lookups (API key → tenant ID).
type TenantStore struct {
	Pool *dbpool.Pool
}

// NewTenantStore creates a new TenantStore.
func NewTenantStore(pool *dbpool.Pool) *TenantStore {
	return &TenantStore{Pool: pool}
}

// hashAPIKey returns the hex SHA-256 of an API key. Raw keys are never stored.
func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(hash[:])
}

// GetTenantByAPIKey looks up a tenant ID by API key hash.
func (s *TenantStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tenantID string

	err := s.Pool.QueryRow(ctx, "SELECT id FROM tenants WHERE api_key_hash = $1", hashAPIKey(apiKey)).Scan(&tenantID)
	if err != nil {
		return "", fmt.Errorf("looking up tenant by API key: %w", err)
	}

	return tenantID, nil
}

// CreateTenant registers a tenant authenticated by apiKey and returns its ID.
func (s *TenantStore) CreateTenant(ctx context.Context, name, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tenantID string

	err := s.Pool.QueryRow(ctx,
		"INSERT INTO tenants (name, api_key_hash) VALUES ($1, $2) RETURNING id",
		name, hashAPIKey(apiKey),
	).Scan(&tenantID)
	if err != nil {
		return "", fmt.Errorf("creating tenant %q: %w", name, err)
	}

	return tenantID, nil
}
