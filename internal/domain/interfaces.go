// Package domain defines the canonical service interfaces shared by the HTTP
// layer and the services. Consumers should depend on these interfaces
// rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// RankResult is a finished rank run shaped for the response.
type RankResult struct {
	Hops    []rank.RankMap
	State   rank.State
	Visited int64
}

// RankService runs neighbor rank for a tenant.
type RankService interface {
	NeighborRank(ctx context.Context, tenantID string, req models.RankRequest) (*RankResult, error)
}

// EdgeService loads labelled edges for a tenant.
type EdgeService interface {
	UpsertEdges(ctx context.Context, tenantID string, req models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error)
}
