package client

import "context"

// maxEdgesPerCall mirrors the server's per-request batch limit.
const maxEdgesPerCall = 5000

// GraphService loads edges into the tenant's graph.
type GraphService struct {
	c *Client
}

// UpsertEdges writes edges, splitting them into server-sized batches.
// Counts are summed across batches.
func (s *GraphService) UpsertEdges(ctx context.Context, edges []Edge) (*UpsertEdgesResponse, error) {
	total := &UpsertEdgesResponse{}

	for start := 0; start < len(edges); start += maxEdgesPerCall {
		end := min(start+maxEdgesPerCall, len(edges))

		var resp UpsertEdgesResponse
		body := map[string][]Edge{"edges": edges[start:end]}
		if _, err := s.c.post(ctx, "/api/v1/graph/edges", body, &resp); err != nil {
			return total, err
		}

		total.Edges += resp.Edges
		total.Vertices += resp.Vertices
		total.Labels += resp.Labels
	}

	return total, nil
}
