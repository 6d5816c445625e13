package rank

import "sync"

// Governor bounds the distinct vertices a run may visit.
// It is safe for concurrent use.
type Governor struct {
	mu       sync.Mutex
	capacity int64
	visited  map[VertexID]struct{}
}

// NewGovernor creates a Governor that has already admitted source.
// A capacity of Unbounded disables the budget.
func NewGovernor(capacity int64, source VertexID) *Governor {
	return &Governor{
		capacity: capacity,
		visited:  map[VertexID]struct{}{source: {}},
	}
}

// TryAdmit admits v, returning false without changing state when v is new
// and the budget is spent. Already visited vertices are always accepted.
func (g *Governor) TryAdmit(v VertexID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.visited[v]; ok {
		return true
	}

	if g.capacity != Unbounded && int64(len(g.visited)) >= g.capacity {
		return false
	}

	g.visited[v] = struct{}{}

	return true
}

// Visited returns the number of distinct vertices admitted so far.
func (g *Governor) Visited() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return int64(len(g.visited))
}
