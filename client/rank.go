package client

import (
	"context"
	"strconv"
)

// RankService runs NeighborRank queries.
type RankService struct {
	c *Client
}

// NeighborRank runs a rank request and returns the per-hop results.
func (s *RankService) NeighborRank(ctx context.Context, req RankRequest) (*RankResponse, error) {
	var hops []Hop

	h, err := s.c.post(ctx, "/api/v1/graph/neighborrank", req, &hops)
	if err != nil {
		return nil, err
	}

	resp := &RankResponse{Hops: hops, State: h.Get("X-Rank-State")}
	if v := h.Get("X-Rank-Visited"); v != "" {
		resp.Visited, _ = strconv.ParseInt(v, 10, 64)
	}

	return resp, nil
}
