// Package memgraph provides an in-memory property graph that satisfies
// rank.Graph. It backs offline CLI runs and tests.
package memgraph

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// Compile-time check: *Graph must satisfy rank.Graph.
var _ rank.Graph = (*Graph)(nil)

type edge struct {
	peer       rank.VertexID
	label      rank.LabelID
	properties map[string]any
}

// Graph is a directed multigraph with labelled edges. Safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	vertices map[rank.VertexID]struct{}
	labels   map[string]rank.LabelID
	out      map[rank.VertexID][]edge
	in       map[rank.VertexID][]edge
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[rank.VertexID]struct{}),
		labels:   make(map[string]rank.LabelID),
		out:      make(map[rank.VertexID][]edge),
		in:       make(map[rank.VertexID][]edge),
	}
}

// AddVertex inserts v if missing.
func (g *Graph) AddVertex(v rank.VertexID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.vertices[v] = struct{}{}
}

// AddEdge inserts source -label-> target, creating vertices and the label as needed.
func (g *Graph) AddEdge(source, target rank.VertexID, label string, props map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.vertices[source] = struct{}{}
	g.vertices[target] = struct{}{}

	id, ok := g.labels[label]
	if !ok {
		id = rank.LabelID(len(g.labels) + 1)
		g.labels[label] = id
	}

	g.out[source] = append(g.out[source], edge{peer: target, label: id, properties: props})
	g.in[target] = append(g.in[target], edge{peer: source, label: id, properties: props})
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.vertices)
}

// ForTenant returns g itself: an in-memory graph is shared by every tenant.
func (g *Graph) ForTenant(string) rank.Graph { return g }

// VertexExists reports whether v is present.
func (g *Graph) VertexExists(_ context.Context, v rank.VertexID) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.vertices[v]

	return ok, nil
}

// ResolveLabel returns the id of a label name.
func (g *Graph) ResolveLabel(_ context.Context, name string) (rank.LabelID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.labels[name]
	if !ok {
		return 0, models.ErrLabelNotFound
	}

	return id, nil
}

// Neighbors yields the distinct neighbors of v matching q in ascending order.
func (g *Graph) Neighbors(ctx context.Context, v rank.VertexID, q rank.NeighborQuery) iter.Seq2[rank.VertexID, error] {
	return func(yield func(rank.VertexID, error) bool) {
		if err := ctx.Err(); err != nil {
			yield("", err)

			return
		}

		for _, n := range g.collect(v, q) {
			if !yield(n, nil) {
				return
			}
		}
	}
}

func (g *Graph) collect(v rank.VertexID, q rank.NeighborQuery) []rank.VertexID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := make(map[rank.VertexID]struct{})

	add := func(edges []edge) {
		for _, e := range edges {
			if len(q.Labels) > 0 && !slices.Contains(q.Labels, e.label) {
				continue
			}

			if !q.Properties.Matches(e.properties) {
				continue
			}

			set[e.peer] = struct{}{}
		}
	}

	if q.Direction == rank.Out || q.Direction == rank.Both {
		add(g.out[v])
	}

	if q.Direction == rank.In || q.Direction == rank.Both {
		add(g.in[v])
	}

	ids := make([]rank.VertexID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	if q.Limit > 0 && int64(len(ids)) > q.Limit {
		ids = ids[:q.Limit]
	}

	return ids
}
