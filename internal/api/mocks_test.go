package api_test

import (
	"context"

	"github.com/persistorai/neighborrank/internal/domain"
	"github.com/persistorai/neighborrank/internal/models"
)

// mockRankService implements api.RankService for testing.
type mockRankService struct {
	rankFn func(ctx context.Context, tenantID string, req models.RankRequest) (*domain.RankResult, error)
}

func (m *mockRankService) NeighborRank(ctx context.Context, tenantID string, req models.RankRequest) (*domain.RankResult, error) {
	return m.rankFn(ctx, tenantID, req)
}

// mockEdgeService implements api.EdgeService for testing.
type mockEdgeService struct {
	upsertFn func(ctx context.Context, tenantID string, req models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error)
}

func (m *mockEdgeService) UpsertEdges(ctx context.Context, tenantID string, req models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error) {
	return m.upsertFn(ctx, tenantID, req)
}

// mockTenantLookup accepts exactly one key.
type mockTenantLookup struct {
	key, tenantID string
}

func (m *mockTenantLookup) GetTenantByAPIKey(_ context.Context, apiKey string) (string, error) {
	if apiKey != m.key {
		return "", models.ErrValidation
	}

	return m.tenantID, nil
}
