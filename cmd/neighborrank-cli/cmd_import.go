package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/neighborrank/client"
	"github.com/persistorai/neighborrank/internal/memgraph"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Bulk-load a YAML graph into the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edges, isolated, err := readEdges(args[0])
			if err != nil {
				return err
			}
			if isolated > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipping %d vertices without edges\n", isolated)
			}

			res, err := apiClient.Graph.UpsertEdges(cmd.Context(), edges)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			if flagFmt == "quiet" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Edges)
				return nil
			}
			return formatJSON(cmd.OutOrStdout(), res)
		},
	}
}

// readEdges decodes a YAML graph file. Vertices only listed under
// "vertices" cannot be sent and are counted as isolated.
func readEdges(path string) ([]client.Edge, int, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from the operator.
	if err != nil {
		return nil, 0, fmt.Errorf("opening graph file: %w", err)
	}
	defer fh.Close()

	f, err := memgraph.Decode(fh)
	if err != nil {
		return nil, 0, err
	}

	touched := make(map[string]struct{}, len(f.Edges))
	edges := make([]client.Edge, len(f.Edges))
	for i, e := range f.Edges {
		edges[i] = client.Edge{Source: e.Source, Target: e.Target, Label: e.Label, Properties: e.Properties}
		touched[e.Source] = struct{}{}
		touched[e.Target] = struct{}{}
	}

	isolated := 0
	for _, v := range f.Vertices {
		if _, ok := touched[v]; !ok {
			isolated++
		}
	}

	return edges, isolated, nil
}
