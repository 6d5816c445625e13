package store_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
	"github.com/persistorai/neighborrank/internal/store"
)

func loadEdges(t *testing.T, base store.Base, tenantID string, edges []models.EdgeInput) {
	t.Helper()

	if _, err := store.NewBulkStore(base).UpsertEdges(context.Background(), tenantID, edges); err != nil {
		t.Fatalf("UpsertEdges: %v", err)
	}
}

func collect(t *testing.T, seq func(func(rank.VertexID, error) bool)) []rank.VertexID {
	t.Helper()

	var out []rank.VertexID

	for v, err := range seq {
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}

		out = append(out, v)
	}

	return out
}

func TestGraphStore_Neighbors(t *testing.T) {
	base, tenantID := setupTestBase(t)
	ctx := context.Background()

	loadEdges(t, base, tenantID, []models.EdgeInput{
		{Source: "a", Target: "c", Label: "knows", Properties: map[string]any{"since": 2020}},
		{Source: "a", Target: "b", Label: "knows"},
		{Source: "a", Target: "b", Label: "likes"},
		{Source: "d", Target: "a", Label: "likes"},
	})

	g := store.NewGraphStore(base, newLabelCache()).ForTenant(tenantID)

	knows, err := g.ResolveLabel(ctx, "knows")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}

	tests := []struct {
		name  string
		query rank.NeighborQuery
		want  []rank.VertexID
	}{
		{name: "out all labels", query: rank.NeighborQuery{Direction: rank.Out, Limit: rank.Unbounded}, want: []rank.VertexID{"b", "c"}},
		{name: "in", query: rank.NeighborQuery{Direction: rank.In, Limit: rank.Unbounded}, want: []rank.VertexID{"d"}},
		{name: "both", query: rank.NeighborQuery{Direction: rank.Both, Limit: rank.Unbounded}, want: []rank.VertexID{"b", "c", "d"}},
		{name: "degree cap", query: rank.NeighborQuery{Direction: rank.Both, Limit: 2}, want: []rank.VertexID{"b", "c"}},
		{name: "label filter", query: rank.NeighborQuery{Direction: rank.Out, Labels: []rank.LabelID{knows}, Limit: rank.Unbounded}, want: []rank.VertexID{"b", "c"}},
		{
			name: "property filter",
			query: rank.NeighborQuery{
				Direction:  rank.Out,
				Properties: rank.NewPropertyFilter(map[string]any{"since": 2020}),
				Limit:      rank.Unbounded,
			},
			want: []rank.VertexID{"c"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := collect(t, g.Neighbors(ctx, "a", tc.query))
			if !slices.Equal(got, tc.want) {
				t.Errorf("neighbors = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGraphStore_EarlyBreak(t *testing.T) {
	base, tenantID := setupTestBase(t)
	ctx := context.Background()

	loadEdges(t, base, tenantID, []models.EdgeInput{
		{Source: "a", Target: "b", Label: "x"},
		{Source: "a", Target: "c", Label: "x"},
		{Source: "a", Target: "d", Label: "x"},
	})

	g := store.NewGraphStore(base, newLabelCache()).ForTenant(tenantID)

	for v, err := range g.Neighbors(ctx, "a", rank.NeighborQuery{Limit: rank.Unbounded}) {
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}

		if v == "b" {
			break
		}
	}

	// The connection must be back in the pool for the next query.
	ok, err := g.VertexExists(ctx, "c")
	if err != nil || !ok {
		t.Fatalf("VertexExists after break = %v, %v", ok, err)
	}
}

func TestGraphStore_ResolveAndExists(t *testing.T) {
	base, tenantID := setupTestBase(t)
	ctx := context.Background()

	loadEdges(t, base, tenantID, []models.EdgeInput{{Source: "a", Target: "b", Label: "knows"}})

	cache := newLabelCache()
	g := store.NewGraphStore(base, cache).ForTenant(tenantID)

	if _, err := g.ResolveLabel(ctx, "missing"); !errors.Is(err, models.ErrLabelNotFound) {
		t.Errorf("expected ErrLabelNotFound, got %v", err)
	}

	if _, err := g.ResolveLabel(ctx, "knows"); err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}

	if cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1 (misses are not cached)", cache.Len())
	}

	if ok, err := g.VertexExists(ctx, "zzz"); err != nil || ok {
		t.Errorf("VertexExists(zzz) = %v, %v; want false", ok, err)
	}
}

func TestGraphStore_TenantIsolation(t *testing.T) {
	base, tenantA := setupTestBase(t)
	_, tenantB := setupTestBase(t)
	ctx := context.Background()

	loadEdges(t, base, tenantA, []models.EdgeInput{{Source: "a", Target: "b", Label: "knows"}})

	g := store.NewGraphStore(base, newLabelCache()).ForTenant(tenantB)

	if ok, err := g.VertexExists(ctx, "a"); err != nil || ok {
		t.Errorf("tenant B sees tenant A's vertex: %v, %v", ok, err)
	}

	if _, err := g.ResolveLabel(ctx, "knows"); !errors.Is(err, models.ErrLabelNotFound) {
		t.Errorf("tenant B resolved tenant A's label: %v", err)
	}
}

func TestBulkStore_UpsertCounts(t *testing.T) {
	base, tenantID := setupTestBase(t)
	bs := store.NewBulkStore(base)
	ctx := context.Background()

	res, err := bs.UpsertEdges(ctx, tenantID, []models.EdgeInput{
		{Source: "a", Target: "b", Label: "knows"},
		{Source: "a", Target: "b", Label: "knows", Properties: map[string]any{"w": 1}},
		{Source: "b", Target: "c", Label: "likes"},
	})
	if err != nil {
		t.Fatalf("UpsertEdges: %v", err)
	}

	want := models.UpsertEdgesResult{Edges: 2, Vertices: 3, Labels: 2}
	if *res != want {
		t.Errorf("result = %+v, want %+v", *res, want)
	}

	res, err = bs.UpsertEdges(ctx, tenantID, []models.EdgeInput{{Source: "a", Target: "b", Label: "knows"}})
	if err != nil {
		t.Fatalf("second UpsertEdges: %v", err)
	}

	if res.Vertices != 0 || res.Labels != 0 || res.Edges != 1 {
		t.Errorf("re-upsert result = %+v, want only the edge touched", *res)
	}
}
