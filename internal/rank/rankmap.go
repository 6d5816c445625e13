package rank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Scored is one vertex and its rank mass.
type Scored struct {
	Vertex VertexID
	Score  float64
}

// ranksBefore orders by descending score, then ascending vertex.
func ranksBefore(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	return a.Vertex < b.Vertex
}

// RankMap is the pruned state after one hop, best vertex first.
// It encodes as a JSON object whose keys keep rank order.
type RankMap []Scored

// Get returns the score of v.
func (m RankMap) Get(v VertexID) (float64, bool) {
	for _, e := range m {
		if e.Vertex == v {
			return e.Score, true
		}
	}

	return 0, false
}

// Mass returns the sum of all scores.
func (m RankMap) Mass() float64 {
	if len(m) == 0 {
		return 0
	}

	s := make([]float64, len(m))
	for i, e := range m {
		s[i] = e.Score
	}

	return floats.Sum(s)
}

// capMass scales m down until Mass() <= budget. Scores only shrink, and
// a score that a scale factor cannot lower steps down by one ulp instead.
func (m RankMap) capMass(budget float64) {
	for mass := m.Mass(); mass > budget; mass = m.Mass() {
		f := budget / mass

		for i := range m {
			s := m[i].Score * f
			if s >= m[i].Score {
				s = math.Nextafter(m[i].Score, 0)
			}

			m[i].Score = s
		}

		slices.SortFunc(m, func(a, b Scored) int {
			switch {
			case ranksBefore(a, b):
				return -1
			case ranksBefore(b, a):
				return 1
			default:
				return 0
			}
		})
	}
}

// MarshalJSON encodes the map as an ordered JSON object.
func (m RankMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, e := range m {
		if math.IsNaN(e.Score) || math.IsInf(e.Score, 0) {
			return nil, fmt.Errorf("non-finite score for vertex %q", e.Vertex)
		}

		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(string(e.Vertex))
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(e.Score)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (m *RankMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("rank map: expected object, got %v", tok)
	}

	out := RankMap{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("rank map: expected key, got %v", tok)
		}

		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("rank map: decoding score of %q: %w", key, err)
		}

		out = append(out, Scored{Vertex: VertexID(key), Score: score})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out

	return nil
}
