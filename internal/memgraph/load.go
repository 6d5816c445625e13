package memgraph

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// File is the YAML layout of a graph:
//
//	vertices: [a, b]
//	edges:
//	  - {source: a, target: b, label: knows, properties: {since: 2020}}
type File struct {
	Vertices []string           `yaml:"vertices"`
	Edges    []models.EdgeInput `yaml:"edges"`
}

// Decode parses a YAML graph file.
func Decode(r io.Reader) (*File, error) {
	var f File

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}

		return nil, fmt.Errorf("decoding graph yaml: %w", err)
	}

	for i := range f.Edges {
		if err := f.Edges[i].Validate(); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	return &f, nil
}

// Build creates a Graph holding the file's vertices and edges.
func (f *File) Build() *Graph {
	g := New()

	for _, v := range f.Vertices {
		g.AddVertex(rank.VertexID(v))
	}

	for _, e := range f.Edges {
		g.AddEdge(rank.VertexID(e.Source), rank.VertexID(e.Target), e.Label, e.Properties)
	}

	return g
}

// LoadFile reads and builds a graph from a YAML file.
func LoadFile(path string) (*Graph, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from the operator.
	if err != nil {
		return nil, fmt.Errorf("opening graph file: %w", err)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, err
	}

	return f.Build(), nil
}
