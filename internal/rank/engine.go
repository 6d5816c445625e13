package rank

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/persistorai/neighborrank/internal/models"
)

// Engine defaults.
const (
	DefaultWorkers   = 8
	batchesPerWorker = 4
)

// EngineConfig tunes an Engine. Zero values select defaults.
type EngineConfig struct {
	// Workers bounds concurrent neighbor fetches within one hop.
	Workers int
	// BatchSize is the number of vertices fetched before their samples are merged.
	BatchSize int
}

// State is the terminal state of a run.
type State int

// Terminal states. CapacityExceeded is not an error.
const (
	StateCompleted State = iota
	StateCapacityExceeded
)

// String returns the state name used in headers, logs and metrics.
func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateCapacityExceeded:
		return "capacity_exceeded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is a validated rank run.
type Request struct {
	Source   VertexID
	Steps    []Step
	Alpha    float64
	Capacity int64
}

// Validate checks the request-level invariants.
func (r *Request) Validate() error {
	if r.Source == "" {
		return models.ErrMissingSource
	}

	if len(r.Steps) == 0 {
		return models.ErrEmptySteps
	}

	if math.IsNaN(r.Alpha) || r.Alpha < 0 || r.Alpha > 1 {
		return models.Invalidf("alpha", "must be in [0, 1], but got %v", r.Alpha)
	}

	if r.Capacity <= 0 && r.Capacity != Unbounded {
		return models.Invalidf("capacity", "must be > 0 or %d (unbounded), but got %d", Unbounded, r.Capacity)
	}

	for i, s := range r.Steps {
		if err := CheckDegree(s.Degree); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		if err := CheckNumber(s.Number); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	return nil
}

// Result holds one RankMap per completed hop.
type Result struct {
	Hops    []RankMap
	State   State
	Visited int64
}

// Engine runs neighbor rank over a GraphAccessor. It keeps no per-request
// state and is safe for concurrent use.
type Engine struct {
	graph GraphAccessor
	cfg   EngineConfig
}

// NewEngine creates an Engine reading from graph.
func NewEngine(graph GraphAccessor, cfg EngineConfig) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = cfg.Workers * batchesPerWorker
	}

	return &Engine{graph: graph, cfg: cfg}
}

// Run propagates rank mass from req.Source through req.Steps.
// A cancelled ctx aborts the run and discards partial hops.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gov := NewGovernor(req.Capacity, req.Source)
	current := RankMap{{Vertex: req.Source, Score: 1}}
	res := &Result{Hops: make([]RankMap, 0, len(req.Steps)), State: StateCompleted}

	for i, step := range req.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, halted, err := e.expand(ctx, step, req.Alpha, current, gov)
		if err != nil {
			return nil, fmt.Errorf("expanding hop %d: %w", i, err)
		}

		pruned := TopK(next, step.Number)
		// Accumulated shares can round above the mass they came from.
		pruned.capMass(req.Alpha * current.Mass())
		res.Hops = append(res.Hops, pruned)

		if halted {
			res.State = StateCapacityExceeded

			break
		}

		if len(pruned) == 0 {
			break
		}

		current = pruned
	}

	res.Visited = gov.Visited()

	return res, nil
}

// expand pushes the mass of current one hop. halted is true when the
// governor refused a vertex; next then holds what accumulated before that.
func (e *Engine) expand(
	ctx context.Context,
	step Step,
	alpha float64,
	current RankMap,
	gov *Governor,
) (next map[VertexID]float64, halted bool, err error) {
	sources := make(RankMap, 0, len(current))
	for _, c := range current {
		if c.Score > 0 {
			sources = append(sources, c)
		}
	}

	next = make(map[VertexID]float64)

	for start := 0; start < len(sources); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(sources))
		batch := sources[start:end]

		samples, err := e.sampleBatch(ctx, step, batch)
		if err != nil {
			return nil, false, err
		}

		// Merge in rank order so admission is deterministic.
		for i, src := range batch {
			sampled := samples[i]
			if len(sampled) == 0 {
				continue // sink absorbs its mass
			}

			share := alpha * src.Score / float64(len(sampled))

			for _, n := range sampled {
				if !gov.TryAdmit(n) {
					return next, true, nil
				}

				next[n] += share
			}
		}
	}

	return next, false, nil
}

// sampleBatch fetches the neighbor samples of batch concurrently.
func (e *Engine) sampleBatch(ctx context.Context, step Step, batch RankMap) ([][]VertexID, error) {
	samples := make([][]VertexID, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, src := range batch {
		g.Go(func() error {
			sampled, err := e.sample(gctx, src.Vertex, step)
			if err != nil {
				return fmt.Errorf("neighbors of %q: %w", src.Vertex, err)
			}

			samples[i] = sampled

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return samples, nil
}

// sample takes up to step.Degree distinct neighbors in first-seen order.
func (e *Engine) sample(ctx context.Context, v VertexID, step Step) ([]VertexID, error) {
	var (
		out  []VertexID
		seen = make(map[VertexID]struct{})
	)

	for n, err := range e.graph.Neighbors(ctx, v, step.query()) {
		if err != nil {
			return nil, err
		}

		if _, dup := seen[n]; dup {
			continue
		}

		seen[n] = struct{}{}
		out = append(out, n)

		if step.Bounded() && int64(len(out)) >= step.Degree {
			break
		}
	}

	return out, nil
}
