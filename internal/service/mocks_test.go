package service

import (
	"context"
	"iter"
	"sync"

	"github.com/persistorai/neighborrank/internal/memgraph"
	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// mockGraphSource hands out one fixed graph and records requested tenants.
type mockGraphSource struct {
	mu      sync.Mutex
	tenants []string

	graph rank.Graph
}

func (m *mockGraphSource) ForTenant(tenantID string) rank.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants = append(m.tenants, tenantID)
	return m.graph
}

// blockingGraph answers lookups from an in-memory graph but never yields
// neighbors until the context is done.
type blockingGraph struct {
	*memgraph.Graph
}

func (g blockingGraph) Neighbors(ctx context.Context, _ rank.VertexID, _ rank.NeighborQuery) iter.Seq2[rank.VertexID, error] {
	return func(yield func(rank.VertexID, error) bool) {
		<-ctx.Done()
		yield("", ctx.Err())
	}
}

// mockEdgeStore records calls and returns configured responses.
type mockEdgeStore struct {
	mu    sync.Mutex
	calls []string

	upsertEdges func(ctx context.Context, tenantID string, edges []models.EdgeInput) (*models.UpsertEdgesResult, error)
}

func (m *mockEdgeStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockEdgeStore) UpsertEdges(ctx context.Context, tenantID string, edges []models.EdgeInput) (*models.UpsertEdgesResult, error) {
	m.record("UpsertEdges")
	return m.upsertEdges(ctx, tenantID, edges)
}
