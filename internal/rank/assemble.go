package rank

import (
	"fmt"
	"strings"
)

// LimitPolicy selects where the result limit truncates.
type LimitPolicy int

// Limit policies.
const (
	// LimitPerHop keeps the top limit entries of every hop.
	LimitPerHop LimitPolicy = iota
	// LimitTotal caps the entries summed over all hops, in hop order.
	LimitTotal
)

// String returns the configuration name of the policy.
func (p LimitPolicy) String() string {
	switch p {
	case LimitPerHop:
		return "per_hop"
	case LimitTotal:
		return "total"
	default:
		return fmt.Sprintf("LimitPolicy(%d)", int(p))
	}
}

// ParseLimitPolicy parses "per_hop" or "total".
func ParseLimitPolicy(s string) (LimitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_hop":
		return LimitPerHop, nil
	case "total":
		return LimitTotal, nil
	default:
		return LimitPerHop, fmt.Errorf("unknown limit policy %q (want per_hop or total)", s)
	}
}

// Assembler shapes a Result into the response sequence.
type Assembler struct {
	Policy LimitPolicy
}

// Assemble truncates res.Hops to limit entries under the configured policy.
// The number of hops is preserved so a short result still means the run
// stopped early. Unbounded returns the hops unchanged.
func (a Assembler) Assemble(res *Result, limit int64) []RankMap {
	out := make([]RankMap, len(res.Hops))
	if limit == Unbounded {
		copy(out, res.Hops)

		return out
	}

	remaining := limit

	for i, hop := range res.Hops {
		n := int64(len(hop))

		switch a.Policy {
		case LimitTotal:
			n = min(n, remaining)
			remaining -= n
		default:
			n = min(n, limit)
		}

		out[i] = hop[:n:n]
	}

	return out
}
