package memgraph

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

const sample = `vertices: [z]
edges:
  - {source: a, target: c, label: knows}
  - {source: a, target: b, label: knows, properties: {since: 2020}}
  - {source: a, target: b, label: likes}
  - {source: d, target: a, label: knows}
`

func loadSample(t *testing.T) *Graph {
	t.Helper()

	f, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	return f.Build()
}

func collectAll(t *testing.T, g *Graph, v rank.VertexID, q rank.NeighborQuery) []rank.VertexID {
	t.Helper()

	var out []rank.VertexID
	for n, err := range g.Neighbors(context.Background(), v, q) {
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		out = append(out, n)
	}

	return out
}

func TestNeighbors(t *testing.T) {
	g := loadSample(t)
	ctx := context.Background()

	knows, err := g.ResolveLabel(ctx, "knows")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}

	tests := []struct {
		name string
		v    rank.VertexID
		q    rank.NeighborQuery
		want []rank.VertexID
	}{
		{name: "out distinct and sorted", v: "a", q: rank.NeighborQuery{Direction: rank.Out, Limit: rank.Unbounded}, want: []rank.VertexID{"b", "c"}},
		{name: "in", v: "a", q: rank.NeighborQuery{Direction: rank.In, Limit: rank.Unbounded}, want: []rank.VertexID{"d"}},
		{name: "both", v: "a", q: rank.NeighborQuery{Direction: rank.Both, Limit: rank.Unbounded}, want: []rank.VertexID{"b", "c", "d"}},
		{name: "limit", v: "a", q: rank.NeighborQuery{Direction: rank.Both, Limit: 2}, want: []rank.VertexID{"b", "c"}},
		{
			name: "label",
			v:    "a",
			q:    rank.NeighborQuery{Direction: rank.Both, Labels: []rank.LabelID{knows}, Limit: rank.Unbounded},
			want: []rank.VertexID{"b", "c", "d"},
		},
		{
			name: "properties",
			v:    "a",
			q: rank.NeighborQuery{
				Direction:  rank.Out,
				Properties: rank.NewPropertyFilter(map[string]any{"since": 2020.0}),
				Limit:      rank.Unbounded,
			},
			want: []rank.VertexID{"b"},
		},
		{name: "sink", v: "c", q: rank.NeighborQuery{Direction: rank.Out, Limit: rank.Unbounded}, want: nil},
		{name: "isolated", v: "z", q: rank.NeighborQuery{Direction: rank.Both, Limit: rank.Unbounded}, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := collectAll(t, g, tc.v, tc.q)
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNeighbors_EarlyBreak(t *testing.T) {
	g := loadSample(t)

	var seen int
	for range g.Neighbors(context.Background(), "a", rank.NeighborQuery{Direction: rank.Both, Limit: rank.Unbounded}) {
		seen++
		break
	}

	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
}

func TestNeighbors_CanceledContext(t *testing.T) {
	g := loadSample(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range g.Neighbors(ctx, "a", rank.NeighborQuery{Direction: rank.Out}) {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled, got %v", err)
		}
	}
}

func TestVertexAndLabelLookup(t *testing.T) {
	g := loadSample(t)
	ctx := context.Background()

	if g.VertexCount() != 5 {
		t.Errorf("VertexCount = %d, want 5", g.VertexCount())
	}

	for v, want := range map[rank.VertexID]bool{"a": true, "z": true, "q": false} {
		if ok, _ := g.VertexExists(ctx, v); ok != want {
			t.Errorf("VertexExists(%s) = %v, want %v", v, ok, want)
		}
	}

	if _, err := g.ResolveLabel(ctx, "hates"); !errors.Is(err, models.ErrLabelNotFound) {
		t.Errorf("expected ErrLabelNotFound, got %v", err)
	}

	if g.ForTenant("any") != rank.Graph(g) {
		t.Error("ForTenant should return the graph itself")
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field": "nodes: [a]\n",
		"missing label": "edges:\n  - {source: a, target: b}\n",
		"bad yaml":      "edges: [\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if f.Build().VertexCount() != 0 {
		t.Error("empty file should build an empty graph")
	}
}
