package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Rank request limits.
const (
	// Unbounded disables degree, capacity or limit bounds.
	Unbounded int64 = -1
	// MaxStepNumber caps the vertices kept per hop.
	MaxStepNumber = 1000
	// maxIDLength caps vertex identifiers and label names.
	maxIDLength = 255
	// maxPropertiesBytes caps the encoded property filter of one step.
	maxPropertiesBytes = 65536
)

// RankRequest is the payload for POST /api/v1/graph/neighborrank.
// Optional numeric fields are pointers so absence can be told from zero.
type RankRequest struct {
	Source   string        `json:"source"`
	Steps    []StepRequest `json:"steps"`
	Alpha    *float64      `json:"alpha"`
	Capacity *int64        `json:"capacity,omitempty"`
	Limit    *int64        `json:"limit,omitempty"`
}

// StepRequest is one hop of a RankRequest.
type StepRequest struct {
	Direction  string         `json:"direction,omitempty"`
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Degree     *int64         `json:"degree,omitempty"`
	Number     *int           `json:"number,omitempty"`
}

// Validate checks required fields and numeric ranges. It never touches the graph.
func (r *RankRequest) Validate() error {
	if r.Source == "" {
		return ErrMissingSource
	}

	if len(r.Source) > maxIDLength {
		return ErrFieldTooLong("source", maxIDLength)
	}

	if r.Steps != nil && len(r.Steps) == 0 {
		return ErrEmptySteps
	}

	if r.Alpha == nil {
		return ErrMissingAlpha
	}

	if a := *r.Alpha; math.IsNaN(a) || a < 0 || a > 1 {
		return Invalidf("alpha", "must be in [0, 1], but got %v", a)
	}

	if r.Capacity != nil && !positiveOrUnbounded(*r.Capacity) {
		return Invalidf("capacity", "must be > 0 or %d (unbounded), but got %d", Unbounded, *r.Capacity)
	}

	if r.Limit != nil && !positiveOrUnbounded(*r.Limit) {
		return Invalidf("limit", "must be > 0 or %d (unbounded), but got %d", Unbounded, *r.Limit)
	}

	for i := range r.Steps {
		if err := r.Steps[i].Validate(); err != nil {
			return &FieldError{Field: "steps", Reason: "[" + strconv.Itoa(i) + "]: " + err.Error()}
		}
	}

	return nil
}

// Validate checks one step.
func (s *StepRequest) Validate() error {
	switch strings.ToUpper(strings.TrimSpace(s.Direction)) {
	case "", "OUT", "IN", "BOTH":
	default:
		return Invalidf("direction", "must be OUT, IN or BOTH, but got %q", s.Direction)
	}

	for _, l := range s.Labels {
		if l == "" {
			return Invalidf("labels", "must not contain empty names")
		}

		if len(l) > maxIDLength {
			return ErrFieldTooLong("label", maxIDLength)
		}
	}

	if s.Degree != nil && !positiveOrUnbounded(*s.Degree) {
		return Invalidf("degree", "must be > 0 or %d (unbounded), but got %d", Unbounded, *s.Degree)
	}

	if s.Number != nil && (*s.Number < 1 || *s.Number > MaxStepNumber) {
		return Invalidf("number", "must be in [1, %d], but got %d", MaxStepNumber, *s.Number)
	}

	if s.Properties != nil {
		data, err := json.Marshal(s.Properties)
		if err != nil {
			return Invalidf("properties", "are not valid JSON: %v", err)
		}

		if len(data) > maxPropertiesBytes {
			return ErrFieldTooLong("properties", maxPropertiesBytes)
		}
	}

	return nil
}

func positiveOrUnbounded(v int64) bool {
	return v > 0 || v == Unbounded
}
