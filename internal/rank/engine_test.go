package rank_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/persistorai/neighborrank/internal/memgraph"
	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

const eps = 1e-9

func outStep(degree int64, number int) rank.Step {
	return rank.Step{Direction: rank.Out, Degree: degree, Number: number}
}

func buildGraph(edges ...[2]string) *memgraph.Graph {
	g := memgraph.New()
	for _, e := range edges {
		g.AddEdge(rank.VertexID(e[0]), rank.VertexID(e[1]), "link", nil)
	}

	return g
}

func run(t *testing.T, g rank.GraphAccessor, req rank.Request) *rank.Result {
	t.Helper()

	res, err := rank.NewEngine(g, rank.EngineConfig{}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	return res
}

func assertScores(t *testing.T, got rank.RankMap, want map[rank.VertexID]float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("hop size = %d, want %d (%v)", len(got), len(want), got)
	}

	for v, w := range want {
		s, ok := got.Get(v)
		if !ok {
			t.Fatalf("vertex %q missing from %v", v, got)
		}

		if math.Abs(s-w) > eps {
			t.Errorf("score[%q] = %v, want %v", v, s, w)
		}
	}
}

func TestRun_SplitsMassEqually(t *testing.T) {
	g := buildGraph([2]string{"v1", "v2"}, [2]string{"v1", "v3"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 10)},
		Alpha:    0.8,
		Capacity: rank.Unbounded,
	})

	if len(res.Hops) != 1 {
		t.Fatalf("hops = %d, want 1", len(res.Hops))
	}

	assertScores(t, res.Hops[0], map[rank.VertexID]float64{"v2": 0.4, "v3": 0.4})

	if res.State != rank.StateCompleted {
		t.Errorf("state = %s, want completed", res.State)
	}
}

func TestRun_CapacityOneStopsAtFirstHop(t *testing.T) {
	g := buildGraph([2]string{"v1", "v2"}, [2]string{"v2", "v3"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 10), outStep(rank.Unbounded, 10)},
		Alpha:    0.5,
		Capacity: 1,
	})

	if len(res.Hops) != 1 {
		t.Fatalf("hops = %d, want 1", len(res.Hops))
	}

	if len(res.Hops[0]) != 0 {
		t.Errorf("first hop = %v, want empty", res.Hops[0])
	}

	if res.State != rank.StateCapacityExceeded {
		t.Errorf("state = %s, want capacity_exceeded", res.State)
	}

	if res.Visited != 1 {
		t.Errorf("visited = %d, want 1", res.Visited)
	}
}

func TestRun_CapacityKeepsPartialHop(t *testing.T) {
	g := buildGraph([2]string{"v1", "a"}, [2]string{"v1", "b"}, [2]string{"v1", "c"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 10), outStep(rank.Unbounded, 10)},
		Alpha:    0.9,
		Capacity: 3,
	})

	if res.State != rank.StateCapacityExceeded {
		t.Fatalf("state = %s, want capacity_exceeded", res.State)
	}

	assertScores(t, res.Hops[0], map[rank.VertexID]float64{"a": 0.3, "b": 0.3})

	if res.Visited > 3 {
		t.Errorf("visited = %d exceeds capacity 3", res.Visited)
	}
}

func TestRun_VisitedVerticesDoNotConsumeBudget(t *testing.T) {
	g := buildGraph([2]string{"v1", "a"}, [2]string{"a", "v1"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 10), outStep(rank.Unbounded, 10)},
		Alpha:    0.8,
		Capacity: 2,
	})

	if res.State != rank.StateCompleted {
		t.Fatalf("state = %s, want completed", res.State)
	}

	assertScores(t, res.Hops[1], map[rank.VertexID]float64{"v1": 0.64})
}

func TestRun_NoMatchingEdgesHalts(t *testing.T) {
	g := memgraph.New()
	g.AddEdge("v1", "v2", "knows", nil)
	g.AddEdge("v2", "v3", "likes", nil)

	likes, err := g.ResolveLabel(context.Background(), "likes")
	if err != nil {
		t.Fatalf("ResolveLabel: %v", err)
	}

	steps := []rank.Step{
		{Direction: rank.Out, Labels: []rank.LabelID{likes}, Degree: rank.Unbounded, Number: 10},
		outStep(rank.Unbounded, 10),
	}

	res := run(t, g, rank.Request{Source: "v1", Steps: steps, Alpha: 0.8, Capacity: rank.Unbounded})

	if len(res.Hops) != 1 {
		t.Fatalf("hops = %d, want 1 (engine must stop after an all-sink hop)", len(res.Hops))
	}

	if len(res.Hops[0]) != 0 {
		t.Errorf("hop = %v, want empty", res.Hops[0])
	}
}

func TestRun_SinkAbsorbsMass(t *testing.T) {
	g := buildGraph([2]string{"v1", "a"}, [2]string{"v1", "b"}, [2]string{"a", "x"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 10), outStep(rank.Unbounded, 10)},
		Alpha:    0.8,
		Capacity: rank.Unbounded,
	})

	assertScores(t, res.Hops[1], map[rank.VertexID]float64{"x": 0.32})
}

func TestRun_NextHopReadsPrunedScores(t *testing.T) {
	g := buildGraph(
		[2]string{"v1", "a"}, [2]string{"v1", "b"}, [2]string{"v1", "c"},
		[2]string{"a", "x"}, [2]string{"b", "y"}, [2]string{"c", "z"},
	)

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(rank.Unbounded, 1), outStep(rank.Unbounded, 10)},
		Alpha:    0.5,
		Capacity: rank.Unbounded,
	})

	// Ties at hop 1 keep the smallest vertex id.
	assertScores(t, res.Hops[0], map[rank.VertexID]float64{"a": 0.5 / 3})
	assertScores(t, res.Hops[1], map[rank.VertexID]float64{"x": 0.25 / 3})
}

func TestRun_DegreeSamplesFirstNeighbors(t *testing.T) {
	g := buildGraph([2]string{"v1", "d"}, [2]string{"v1", "c"}, [2]string{"v1", "b"}, [2]string{"v1", "a"})

	res := run(t, g, rank.Request{
		Source:   "v1",
		Steps:    []rank.Step{outStep(2, 10)},
		Alpha:    1,
		Capacity: rank.Unbounded,
	})

	assertScores(t, res.Hops[0], map[rank.VertexID]float64{"a": 0.5, "b": 0.5})
}

func TestRun_DirectionAndProperties(t *testing.T) {
	g := memgraph.New()
	g.AddEdge("v1", "out1", "rel", map[string]any{"kind": "friend"})
	g.AddEdge("v1", "out2", "rel", map[string]any{"kind": "foe"})
	g.AddEdge("in1", "v1", "rel", map[string]any{"kind": "friend"})

	tests := []struct {
		name string
		step rank.Step
		want map[rank.VertexID]float64
	}{
		{
			name: "out",
			step: outStep(rank.Unbounded, 10),
			want: map[rank.VertexID]float64{"out1": 0.5, "out2": 0.5},
		},
		{
			name: "in",
			step: rank.Step{Direction: rank.In, Degree: rank.Unbounded, Number: 10},
			want: map[rank.VertexID]float64{"in1": 1},
		},
		{
			name: "both filtered",
			step: rank.Step{
				Direction:  rank.Both,
				Properties: rank.NewPropertyFilter(map[string]any{"kind": "friend"}),
				Degree:     rank.Unbounded,
				Number:     10,
			},
			want: map[rank.VertexID]float64{"out1": 0.5, "in1": 0.5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, g, rank.Request{Source: "v1", Steps: []rank.Step{tc.step}, Alpha: 1, Capacity: rank.Unbounded})
			assertScores(t, res.Hops[0], tc.want)
		})
	}
}

func TestRun_MassNeverIncreases(t *testing.T) {
	g := memgraph.New()
	for i := range 30 {
		for j := 1; j <= 4; j++ {
			g.AddEdge(rank.VertexID(fmt.Sprintf("n%02d", i)), rank.VertexID(fmt.Sprintf("n%02d", (i*7+j)%30)), "link", nil)
		}
	}

	steps := []rank.Step{
		outStep(3, 20),
		outStep(rank.Unbounded, 15),
		{Direction: rank.Both, Degree: 5, Number: 10},
		outStep(2, 5),
	}

	res := run(t, g, rank.Request{Source: "n00", Steps: steps, Alpha: 0.85, Capacity: rank.Unbounded})

	prev := 1.0
	for i, hop := range res.Hops {
		if len(hop) > steps[i].Number {
			t.Errorf("hop %d size %d exceeds number %d", i, len(hop), steps[i].Number)
		}

		for _, e := range hop {
			if e.Score < 0 || math.IsNaN(e.Score) || math.IsInf(e.Score, 0) {
				t.Errorf("hop %d has invalid score %v", i, e.Score)
			}
		}

		mass := hop.Mass()
		if mass > prev {
			t.Errorf("hop %d mass %v exceeds previous %v", i, mass, prev)
		}

		prev = mass
	}
}

func TestRun_FanInMassBounded(t *testing.T) {
	steps := []rank.Step{outStep(rank.Unbounded, 1000), outStep(rank.Unbounded, 1000)}

	for n := 2; n < 60; n++ {
		g := memgraph.New()
		for i := range n {
			mid := rank.VertexID(fmt.Sprintf("m%02d", i))
			g.AddEdge("s", mid, "link", nil)
			g.AddEdge(mid, "z", "link", nil)
		}

		res := run(t, g, rank.Request{Source: "s", Steps: steps, Alpha: 1, Capacity: rank.Unbounded})
		if len(res.Hops) != 2 {
			t.Fatalf("n=%d: got %d hops, want 2", n, len(res.Hops))
		}

		first, second := res.Hops[0].Mass(), res.Hops[1].Mass()
		if first > 1 {
			t.Errorf("n=%d: first hop mass %v exceeds 1", n, first)
		}

		if second > first {
			t.Errorf("n=%d: second hop mass %.18f exceeds first %.18f", n, second, first)
		}

		z, ok := res.Hops[1].Get("z")
		if !ok || z > 1 || math.Abs(z-1) > eps {
			t.Errorf("n=%d: score(z) = %v, %v; want ~1 and <= 1", n, z, ok)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	g := memgraph.New()
	for i := range 200 {
		g.AddEdge("root", rank.VertexID(fmt.Sprintf("m%03d", i)), "link", nil)
		g.AddEdge(rank.VertexID(fmt.Sprintf("m%03d", i)), rank.VertexID(fmt.Sprintf("m%03d", (i*13)%200)), "link", nil)
		g.AddEdge(rank.VertexID(fmt.Sprintf("m%03d", i)), rank.VertexID(fmt.Sprintf("leaf%03d", i%17)), "link", nil)
	}

	req := rank.Request{
		Source:   "root",
		Steps:    []rank.Step{outStep(rank.Unbounded, 100), outStep(rank.Unbounded, 50), outStep(rank.Unbounded, 50)},
		Alpha:    0.7,
		Capacity: 150,
	}

	serial, err := rank.NewEngine(g, rank.EngineConfig{Workers: 1, BatchSize: 1}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("serial Run: %v", err)
	}

	for range 5 {
		parallel, err := rank.NewEngine(g, rank.EngineConfig{Workers: 8, BatchSize: 16}).Run(context.Background(), req)
		if err != nil {
			t.Fatalf("parallel Run: %v", err)
		}

		if !reflect.DeepEqual(serial, parallel) {
			t.Fatalf("results differ between runs:\nserial   %v\nparallel %v", serial, parallel)
		}
	}
}

// countingGraph counts neighbor calls and can inject failures.
type countingGraph struct {
	inner rank.GraphAccessor
	calls atomic.Int64
	err   error
}

func (c *countingGraph) Neighbors(ctx context.Context, v rank.VertexID, q rank.NeighborQuery) iter.Seq2[rank.VertexID, error] {
	c.calls.Add(1)

	if c.err != nil {
		return func(yield func(rank.VertexID, error) bool) { yield("", c.err) }
	}

	return c.inner.Neighbors(ctx, v, q)
}

func TestRun_InvalidRequestTouchesNoGraph(t *testing.T) {
	g := &countingGraph{inner: buildGraph([2]string{"v1", "v2"})}
	engine := rank.NewEngine(g, rank.EngineConfig{})

	tests := []struct {
		name string
		req  rank.Request
	}{
		{name: "alpha above one", req: rank.Request{Source: "v1", Steps: []rank.Step{outStep(1, 1)}, Alpha: 1.01, Capacity: 10}},
		{name: "alpha negative", req: rank.Request{Source: "v1", Steps: []rank.Step{outStep(1, 1)}, Alpha: -1, Capacity: 10}},
		{name: "no steps", req: rank.Request{Source: "v1", Alpha: 0.5, Capacity: 10}},
		{name: "zero capacity", req: rank.Request{Source: "v1", Steps: []rank.Step{outStep(1, 1)}, Alpha: 0.5}},
		{name: "number too large", req: rank.Request{Source: "v1", Steps: []rank.Step{outStep(1, 1001)}, Alpha: 0.5, Capacity: 10}},
		{name: "zero degree", req: rank.Request{Source: "v1", Steps: []rank.Step{outStep(0, 1)}, Alpha: 0.5, Capacity: 10}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Run(context.Background(), tc.req)
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if n := g.calls.Load(); n != 0 {
		t.Errorf("graph accessed %d times for invalid requests", n)
	}
}

func TestRun_AccessorErrorIsReturned(t *testing.T) {
	boom := errors.New("store unavailable")
	g := &countingGraph{err: boom}

	_, err := rank.NewEngine(g, rank.EngineConfig{}).Run(context.Background(), rank.Request{
		Source: "v1", Steps: []rank.Step{outStep(1, 1)}, Alpha: 0.5, Capacity: 10,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	g := buildGraph([2]string{"v1", "v2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rank.NewEngine(g, rank.EngineConfig{}).Run(ctx, rank.Request{
		Source: "v1", Steps: []rank.Step{outStep(1, 1)}, Alpha: 0.5, Capacity: 10,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
