package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/domain"
	"github.com/persistorai/neighborrank/internal/metrics"
	"github.com/persistorai/neighborrank/internal/models"
)

// EdgeStore is the data-access interface EdgeService depends on.
type EdgeStore interface {
	UpsertEdges(ctx context.Context, tenantID string, edges []models.EdgeInput) (*models.UpsertEdgesResult, error)
}

// Compile-time check: *EdgeService must satisfy domain.EdgeService.
var _ domain.EdgeService = (*EdgeService)(nil)

// EdgeService wraps EdgeStore with validation and context-aware logging.
type EdgeService struct {
	store EdgeStore
	log   *logrus.Logger
}

// NewEdgeService creates an EdgeService.
func NewEdgeService(store EdgeStore, log *logrus.Logger) *EdgeService {
	return &EdgeService{store: store, log: log}
}

// UpsertEdges validates and writes a batch of edges.
func (s *EdgeService) UpsertEdges(ctx context.Context, tenantID string, req models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"edges":     len(req.Edges),
	}).Debug("graph.upsert_edges")

	res, err := s.store.UpsertEdges(ctx, tenantID, req.Edges)
	if err != nil {
		return nil, err
	}

	metrics.EdgesUpserted.Add(float64(res.Edges))

	return res, nil
}
