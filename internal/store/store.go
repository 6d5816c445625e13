// Package store provides focused, single-concern data access stores
// for the neighborrank property graph.
//
// Each store owns one concern (graph reads, bulk loading, tenants) and
// embeds shared helpers (Pool, logger) via the Base struct. Every query runs
// inside a transaction that sets app.tenant_id for the row-level security
// policies.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// setTenant sets the tenant context for RLS policies within a transaction.
func setTenant(ctx context.Context, tx pgx.Tx, tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("invalid tenant ID format: %w", err)
	}

	_, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID)
	if err != nil {
		return fmt.Errorf("setting tenant context: %w", err)
	}

	return nil
}

// beginTx starts a read-write transaction and sets the tenant context.
func (b *Base) beginTx(ctx context.Context, tenantID string) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := setTenant(ctx, tx, tenantID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction and sets the tenant context.
func (b *Base) beginReadTx(ctx context.Context, tenantID string) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	if err := setTenant(ctx, tx, tenantID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}
