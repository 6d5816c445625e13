package rank

import (
	"context"
	"fmt"

	"github.com/persistorai/neighborrank/internal/models"
)

// StepSpec is one hop as requested, with label names not yet resolved.
type StepSpec struct {
	Direction  Direction
	Labels     []string
	Properties map[string]any
	Degree     int64
	Number     int
}

// Step is a validated, label-resolved hop. Treat it as immutable.
type Step struct {
	Direction  Direction
	Labels     []LabelID
	Properties PropertyFilter
	Degree     int64
	Number     int
}

// Bounded reports whether the step caps neighbors per vertex.
func (s Step) Bounded() bool { return s.Degree != Unbounded }

func (s Step) query() NeighborQuery {
	return NeighborQuery{
		Direction:  s.Direction,
		Labels:     s.Labels,
		Properties: s.Properties,
		Limit:      s.Degree,
	}
}

// CheckDegree validates a degree: a positive cap or Unbounded.
func CheckDegree(degree int64) error {
	if degree > 0 || degree == Unbounded {
		return nil
	}

	return models.Invalidf("degree", "must be > 0 or %d (unbounded), but got %d", Unbounded, degree)
}

// CheckNumber validates the per-hop retained vertex count.
func CheckNumber(number int) error {
	if number > 0 && number <= MaxNumber {
		return nil
	}

	return models.Invalidf("number", "must be in [1, %d], but got %d", MaxNumber, number)
}

// CompileSteps validates specs and resolves every label name once.
// Unknown labels fail with models.ErrLabelNotFound before any traversal.
func CompileSteps(ctx context.Context, resolver LabelResolver, specs []StepSpec) ([]Step, error) {
	if len(specs) == 0 {
		return nil, models.ErrEmptySteps
	}

	resolved := make(map[string]LabelID)
	steps := make([]Step, 0, len(specs))

	for i, spec := range specs {
		if spec.Direction < Out || spec.Direction > Both {
			return nil, models.Invalidf("direction", "is invalid in step %d", i)
		}

		if err := CheckDegree(spec.Degree); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		if err := CheckNumber(spec.Number); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		labels, err := resolveLabels(ctx, resolver, spec.Labels, resolved)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		steps = append(steps, Step{
			Direction:  spec.Direction,
			Labels:     labels,
			Properties: NewPropertyFilter(spec.Properties),
			Degree:     spec.Degree,
			Number:     spec.Number,
		})
	}

	return steps, nil
}

func resolveLabels(ctx context.Context, resolver LabelResolver, names []string, cache map[string]LabelID) ([]LabelID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	ids := make([]LabelID, 0, len(names))
	seen := make(map[LabelID]bool, len(names))

	for _, name := range names {
		id, ok := cache[name]
		if !ok {
			var err error

			id, err = resolver.ResolveLabel(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("resolving label %q: %w", name, err)
			}

			cache[name] = id
		}

		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids, nil
}
