// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/domain"
	"github.com/persistorai/neighborrank/internal/metrics"
	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// GraphSource hands out tenant-scoped graphs.
type GraphSource interface {
	ForTenant(tenantID string) rank.Graph
}

// Compile-time check: *RankService must satisfy domain.RankService.
var _ domain.RankService = (*RankService)(nil)

// RankDefaults fill in request fields the caller left out.
type RankDefaults struct {
	Degree   int64
	Number   int
	Capacity int64
	Limit    int64
}

// RankOptions configures a RankService.
type RankOptions struct {
	Defaults RankDefaults
	Engine   rank.EngineConfig
	Policy   rank.LimitPolicy
	// Timeout bounds one run, including label resolution. Zero means none.
	Timeout time.Duration
}

// RankService validates rank requests, resolves them against a tenant's
// graph and runs the engine.
type RankService struct {
	graphs    GraphSource
	opts      RankOptions
	assembler rank.Assembler
	log       *logrus.Logger
}

// NewRankService creates a RankService.
func NewRankService(graphs GraphSource, opts RankOptions, log *logrus.Logger) *RankService {
	if opts.Defaults.Number == 0 {
		opts.Defaults.Number = rank.MaxNumber
	}

	return &RankService{
		graphs:    graphs,
		opts:      opts,
		assembler: rank.Assembler{Policy: opts.Policy},
		log:       log,
	}
}

// NeighborRank runs one rank request for tenantID.
func (s *RankService) NeighborRank(ctx context.Context, tenantID string, req models.RankRequest) (*domain.RankResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"source":    req.Source,
		"steps":     len(req.Steps),
	}).Debug("rank.neighborrank")

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	graph := s.graphs.ForTenant(tenantID)

	exists, err := graph.VertexExists(ctx, rank.VertexID(req.Source))
	if err != nil {
		return nil, fmt.Errorf("checking source vertex: %w", err)
	}

	if !exists {
		return nil, fmt.Errorf("source %q: %w", req.Source, models.ErrVertexNotFound)
	}

	specs, err := s.stepSpecs(req.Steps)
	if err != nil {
		return nil, err
	}

	steps, err := rank.CompileSteps(ctx, graph, specs)
	if err != nil {
		return nil, err
	}

	res, err := rank.NewEngine(graph, s.opts.Engine).Run(ctx, rank.Request{
		Source:   rank.VertexID(req.Source),
		Steps:    steps,
		Alpha:    *req.Alpha,
		Capacity: valueOr(req.Capacity, s.opts.Defaults.Capacity),
	})
	if err != nil {
		return nil, err
	}

	hops := s.assembler.Assemble(res, valueOr(req.Limit, s.opts.Defaults.Limit))
	elapsed := time.Since(start)

	metrics.RankRuns.WithLabelValues(res.State.String()).Inc()
	metrics.RankHops.Observe(float64(len(res.Hops)))
	metrics.RankVisited.Observe(float64(res.Visited))
	metrics.RankDuration.Observe(elapsed.Seconds())

	mass := make([]float64, len(res.Hops))
	for i, h := range res.Hops {
		mass[i] = h.Mass()
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"source":    req.Source,
		"state":     res.State.String(),
		"hops":      len(res.Hops),
		"visited":   res.Visited,
		"mass":      mass,
		"duration":  elapsed.String(),
	}).Info("rank run finished")

	return &domain.RankResult{Hops: hops, State: res.State, Visited: res.Visited}, nil
}

// stepSpecs applies defaults. Absent steps mean one default step.
func (s *RankService) stepSpecs(reqs []models.StepRequest) ([]rank.StepSpec, error) {
	if reqs == nil {
		return []rank.StepSpec{{
			Direction: rank.Out,
			Degree:    s.opts.Defaults.Degree,
			Number:    s.opts.Defaults.Number,
		}}, nil
	}

	specs := make([]rank.StepSpec, len(reqs))

	for i, r := range reqs {
		dir, err := rank.ParseDirection(r.Direction)
		if err != nil {
			return nil, models.Invalidf("steps", "[%d]: %v", i, err)
		}

		specs[i] = rank.StepSpec{
			Direction:  dir,
			Labels:     r.Labels,
			Properties: r.Properties,
			Degree:     valueOr(r.Degree, s.opts.Defaults.Degree),
			Number:     valueOr(r.Number, s.opts.Defaults.Number),
		}
	}

	return specs, nil
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}

	return *p
}
