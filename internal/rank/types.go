// Package rank implements personalized multi-hop neighbor rank.
//
// A run starts with a unit of mass on a source vertex and pushes it outward
// one hop per Step. At every hop each vertex forwards alpha of its mass,
// split evenly over a bounded sample of its neighbors, and the accumulated
// scores are pruned to the step's top-N before the next hop reads them.
// A Governor bounds the number of distinct vertices touched by the whole run.
package rank

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/persistorai/neighborrank/internal/models"
)

// Unbounded disables a degree, capacity or limit bound.
const Unbounded = models.Unbounded

// MaxNumber caps the vertices kept per hop.
const MaxNumber = models.MaxStepNumber

// VertexID identifies a vertex in the underlying store. IDs order bytewise.
type VertexID string

// LabelID identifies an edge label after name resolution.
type LabelID int64

// Direction selects which edges of a vertex are followed.
type Direction int

// Supported directions.
const (
	Out Direction = iota
	In
	Both
)

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case In:
		return "IN"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses OUT, IN or BOTH (case-insensitive). An empty string means OUT.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "OUT":
		return Out, nil
	case "IN":
		return In, nil
	case "BOTH":
		return Both, nil
	default:
		return Out, fmt.Errorf("unknown direction %q (want OUT, IN or BOTH)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if d < Out || d > Both {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}

	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}

	*d = v

	return nil
}

// Predicate requires an edge property to equal Value.
type Predicate struct {
	Key   string
	Value any
}

// PropertyFilter is a conjunction of equality predicates, sorted by key.
type PropertyFilter []Predicate

// NewPropertyFilter builds a filter from a property map. Keys are sorted so
// equal maps always produce equal filters.
func NewPropertyFilter(props map[string]any) PropertyFilter {
	if len(props) == 0 {
		return nil
	}

	f := make(PropertyFilter, 0, len(props))
	for k, v := range props {
		f = append(f, Predicate{Key: k, Value: v})
	}

	sort.Slice(f, func(i, j int) bool { return f[i].Key < f[j].Key })

	return f
}

// Empty reports whether the filter accepts everything.
func (f PropertyFilter) Empty() bool { return len(f) == 0 }

// Matches reports whether props satisfies every predicate. Values are
// compared by their JSON encoding so 1 and 1.0 are equal.
func (f PropertyFilter) Matches(props map[string]any) bool {
	for _, p := range f {
		v, ok := props[p.Key]
		if !ok || !sameValue(v, p.Value) {
			return false
		}
	}

	return true
}

// Map returns the filter as a property map (nil when empty).
func (f PropertyFilter) Map() map[string]any {
	if len(f) == 0 {
		return nil
	}

	m := make(map[string]any, len(f))
	for _, p := range f {
		m[p.Key] = p.Value
	}

	return m
}

func sameValue(a, b any) bool {
	ab, err := json.Marshal(normalizeNumber(a))
	if err != nil {
		return false
	}

	bb, err := json.Marshal(normalizeNumber(b))
	if err != nil {
		return false
	}

	return string(ab) == string(bb)
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}

	return v
}
