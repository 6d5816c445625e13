package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/neighborrank/client"
	"github.com/persistorai/neighborrank/internal/memgraph"
	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
	"github.com/persistorai/neighborrank/internal/service"
)

// Defaults for offline runs, matching the server's configuration defaults.
var offlineDefaults = service.RankDefaults{
	Degree:   10000,
	Capacity: 10000000,
	Limit:    10,
}

type rankFlags struct {
	alpha     float64
	steps     []string
	stepProps []string
	capacity  int64
	limit     int64
	graphPath string
	policy    string
	workers   int
}

func newRankCmd() *cobra.Command {
	var f rankFlags

	cmd := &cobra.Command{
		Use:   "rank <source>",
		Short: "Rank the multi-hop neighborhood of a source vertex",
		Long: `Rank the multi-hop neighborhood of a source vertex.

Each --step is DIRECTION:LABELS:DEGREE:NUMBER, where LABELS is a comma
separated list. Trailing parts may be omitted; empty parts take defaults:

  neighborrank-cli rank alice --alpha 0.85 --step OUT:knows --step BOTH::100:20

Each --step-props is a JSON object of edge property filters for the step at
the same position. Use '{}' to leave an earlier step unfiltered:

  neighborrank-cli rank alice --alpha 1 --step OUT:knows --step OUT:knows \
    --step-props '{}' --step-props '{"since": 2020}'

With --graph the query runs locally against a YAML graph file instead of
the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd, args[0])
			if err != nil {
				return err
			}

			var resp *client.RankResponse
			if f.graphPath != "" {
				resp, err = f.runOffline(cmd.Context(), req)
			} else {
				resp, err = apiClient.Rank.NeighborRank(cmd.Context(), req)
			}
			if err != nil {
				return fmt.Errorf("rank: %w", err)
			}

			return printRank(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "Share of rank mass passed along each hop, in [0, 1]")
	cmd.Flags().StringArrayVar(&f.steps, "step", nil, "Hop spec DIRECTION:LABELS:DEGREE:NUMBER (repeatable)")
	cmd.Flags().StringArrayVar(&f.stepProps, "step-props", nil, "JSON property filters for the step at the same position (repeatable)")
	cmd.Flags().Int64Var(&f.capacity, "capacity", 0, "Max distinct vertices visited, -1 for unbounded")
	cmd.Flags().Int64Var(&f.limit, "limit", 0, "Max vertices returned, -1 for unbounded")
	cmd.Flags().StringVar(&f.graphPath, "graph", "", "Rank a local YAML graph instead of calling the server")
	cmd.Flags().StringVar(&f.policy, "limit-policy", "per_hop", "Offline limit policy: per_hop|total")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Offline neighbor fetch concurrency")
	_ = cmd.MarkFlagRequired("alpha")

	return cmd
}

func (f *rankFlags) request(cmd *cobra.Command, source string) (client.RankRequest, error) {
	req := client.RankRequest{Source: source, Alpha: f.alpha}

	for _, s := range f.steps {
		step, err := parseStep(s)
		if err != nil {
			return req, err
		}
		req.Steps = append(req.Steps, step)
	}

	if len(f.stepProps) > len(req.Steps) {
		return req, fmt.Errorf("got %d --step-props for %d --step", len(f.stepProps), len(req.Steps))
	}

	for i, p := range f.stepProps {
		props, err := parseStepProps(p)
		if err != nil {
			return req, fmt.Errorf("step-props %d: %w", i+1, err)
		}
		req.Steps[i].Properties = props
	}

	if cmd.Flags().Changed("capacity") {
		req.Capacity = &f.capacity
	}
	if cmd.Flags().Changed("limit") {
		req.Limit = &f.limit
	}

	return req, nil
}

// parseStep parses DIRECTION:LABELS:DEGREE:NUMBER.
func parseStep(s string) (client.Step, error) {
	var step client.Step

	parts := strings.Split(s, ":")
	if len(parts) > 4 {
		return step, fmt.Errorf("step %q: want at most 4 colon separated parts", s)
	}

	step.Direction = strings.ToUpper(strings.TrimSpace(parts[0]))

	if len(parts) > 1 && parts[1] != "" {
		for _, l := range strings.Split(parts[1], ",") {
			if l = strings.TrimSpace(l); l != "" {
				step.Labels = append(step.Labels, l)
			}
		}
	}

	if len(parts) > 2 && parts[2] != "" {
		d, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return step, fmt.Errorf("step %q: degree: %w", s, err)
		}
		step.Degree = &d
	}

	if len(parts) > 3 && parts[3] != "" {
		n, err := strconv.Atoi(parts[3])
		if err != nil {
			return step, fmt.Errorf("step %q: number: %w", s, err)
		}
		step.Number = &n
	}

	return step, nil
}

// parseStepProps decodes a JSON object of property filters.
func parseStepProps(s string) (map[string]any, error) {
	var props map[string]any
	if err := json.Unmarshal([]byte(s), &props); err != nil {
		return nil, fmt.Errorf("want a JSON object: %w", err)
	}

	return props, nil
}

// runOffline ranks against a YAML graph with the same service the server uses.
func (f *rankFlags) runOffline(ctx context.Context, req client.RankRequest) (*client.RankResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	policy, err := rank.ParseLimitPolicy(f.policy)
	if err != nil {
		return nil, err
	}

	graph, err := memgraph.LoadFile(f.graphPath)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	svc := service.NewRankService(graph, service.RankOptions{
		Defaults: offlineDefaults,
		Engine:   rank.EngineConfig{Workers: f.workers},
		Policy:   policy,
	}, log)

	res, err := svc.NeighborRank(ctx, "local", toModelRequest(req))
	if err != nil {
		return nil, err
	}

	resp := &client.RankResponse{
		Hops:    make([]client.Hop, len(res.Hops)),
		State:   res.State.String(),
		Visited: res.Visited,
	}
	for i, h := range res.Hops {
		hop := make(client.Hop, len(h))
		for j, s := range h {
			hop[j] = client.Scored{Vertex: string(s.Vertex), Score: s.Score}
		}
		resp.Hops[i] = hop
	}

	return resp, nil
}

func toModelRequest(req client.RankRequest) models.RankRequest {
	out := models.RankRequest{
		Source:   req.Source,
		Alpha:    &req.Alpha,
		Capacity: req.Capacity,
		Limit:    req.Limit,
	}

	if req.Steps != nil {
		out.Steps = make([]models.StepRequest, len(req.Steps))
		for i, s := range req.Steps {
			out.Steps[i] = models.StepRequest{
				Direction:  s.Direction,
				Labels:     s.Labels,
				Properties: s.Properties,
				Degree:     s.Degree,
				Number:     s.Number,
			}
		}
	}

	return out
}
