package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Direction values accepted by Step.Direction.
const (
	DirectionOut  = "OUT"
	DirectionIn   = "IN"
	DirectionBoth = "BOTH"
)

// Unbounded disables a degree, capacity or limit bound.
const Unbounded int64 = -1

// Step is one hop of a rank request. Nil fields take server defaults.
type Step struct {
	Direction  string         `json:"direction,omitempty"`
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Degree     *int64         `json:"degree,omitempty"`
	Number     *int           `json:"number,omitempty"`
}

// RankRequest is the payload for Rank.NeighborRank. A nil Steps is sent as
// null and runs one default OUT step; an empty non-nil Steps is sent as []
// and rejected by the server.
type RankRequest struct {
	Source   string  `json:"source"`
	Steps    []Step  `json:"steps"`
	Alpha    float64 `json:"alpha"`
	Capacity *int64  `json:"capacity,omitempty"`
	Limit    *int64  `json:"limit,omitempty"`
}

// Scored is one ranked vertex.
type Scored struct {
	Vertex string  `json:"vertex"`
	Score  float64 `json:"score"`
}

// Hop holds the ranked vertices of one hop, best first.
type Hop []Scored

// UnmarshalJSON decodes a JSON object and keeps its key order.
func (h *Hop) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("hop: expected object, got %v", tok)
	}

	out := Hop{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var score float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("hop: score of %q: %w", key, err)
		}
		out = append(out, Scored{Vertex: key, Score: score})
	}

	*h = out
	return nil
}

// RankResponse is the result of one rank run.
type RankResponse struct {
	Hops []Hop
	// State is "completed" or "capacity_exceeded".
	State   string
	Visited int64
}

// Edge is one labelled directed edge to upsert.
type Edge struct {
	Source     string         `json:"source" yaml:"source"`
	Target     string         `json:"target" yaml:"target"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// UpsertEdgesResponse counts the rows a bulk upsert wrote.
type UpsertEdgesResponse struct {
	Edges    int `json:"edges"`
	Vertices int `json:"vertices"`
	Labels   int `json:"labels"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
