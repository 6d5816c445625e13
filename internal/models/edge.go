package models

import (
	"encoding/json"
	"fmt"
)

// MaxUpsertEdges caps the edges accepted by one bulk upsert.
const MaxUpsertEdges = 5000

// EdgeInput is one labelled, directed edge to load into the graph.
// Missing vertices and labels are created on upsert.
type EdgeInput struct {
	Source     string         `json:"source" yaml:"source"`
	Target     string         `json:"target" yaml:"target"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Validate checks that required fields are present and within limits.
func (e *EdgeInput) Validate() error {
	if e.Source == "" {
		return ErrMissingSource
	}

	if len(e.Source) > maxIDLength {
		return ErrFieldTooLong("source", maxIDLength)
	}

	if e.Target == "" {
		return ErrMissingTarget
	}

	if len(e.Target) > maxIDLength {
		return ErrFieldTooLong("target", maxIDLength)
	}

	if e.Label == "" {
		return ErrMissingLabel
	}

	if len(e.Label) > maxIDLength {
		return ErrFieldTooLong("label", maxIDLength)
	}

	if e.Properties != nil {
		data, err := json.Marshal(e.Properties)
		if err != nil {
			return Invalidf("properties", "are not valid JSON: %v", err)
		}

		if len(data) > maxPropertiesBytes {
			return ErrFieldTooLong("properties", maxPropertiesBytes)
		}
	}

	return nil
}

// UpsertEdgesRequest is the payload for POST /api/v1/graph/edges.
type UpsertEdgesRequest struct {
	Edges []EdgeInput `json:"edges"`
}

// Validate checks the batch size and every edge.
func (r *UpsertEdgesRequest) Validate() error {
	if len(r.Edges) == 0 {
		return Invalidf("edges", "must not be empty")
	}

	if len(r.Edges) > MaxUpsertEdges {
		return Invalidf("edges", "must not exceed %d per request", MaxUpsertEdges)
	}

	for i := range r.Edges {
		if err := r.Edges[i].Validate(); err != nil {
			return fmt.Errorf("edges[%d]: %w", i, err)
		}
	}

	return nil
}

// UpsertEdgesResult reports what a bulk upsert wrote.
type UpsertEdgesResult struct {
	Edges    int `json:"edges"`
	Vertices int `json:"vertices"`
	Labels   int `json:"labels"`
}
