package rank

import (
	"context"
	"iter"
)

// NeighborQuery selects the adjacent vertices followed by one hop.
type NeighborQuery struct {
	Direction  Direction
	Labels     []LabelID // empty means every label
	Properties PropertyFilter
	// Limit is a pushdown hint (the step degree); Unbounded when absent.
	// Accessors may return more, the engine enforces the cap itself.
	Limit int64
}

// GraphAccessor yields the neighbors of a vertex.
//
// The sequence must be finite, stable for a given graph snapshot and free of
// side effects, so it can be ranged over again. It may be empty. A non-nil
// error ends the sequence.
type GraphAccessor interface {
	Neighbors(ctx context.Context, v VertexID, q NeighborQuery) iter.Seq2[VertexID, error]
}

// LabelResolver maps edge label names to label ids.
type LabelResolver interface {
	// ResolveLabel returns models.ErrLabelNotFound when name is unknown.
	ResolveLabel(ctx context.Context, name string) (LabelID, error)
}

// Graph is the read-only view a rank run needs from a store.
type Graph interface {
	GraphAccessor
	LabelResolver
	// VertexExists reports whether v is present.
	VertexExists(ctx context.Context, v VertexID) (bool, error)
}
