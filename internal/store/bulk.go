package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// BulkStore loads labelled edges, creating vertices and labels on demand.
type BulkStore struct {
	Base
}

// NewBulkStore creates a BulkStore with the given shared base.
func NewBulkStore(base Base) *BulkStore {
	return &BulkStore{Base: base}
}

type edgeKey struct {
	source, target, label string
}

// dedupeEdges collapses repeated (source, target, label) triples, keeping the
// first position and the last properties. One INSERT ... ON CONFLICT DO UPDATE
// cannot touch the same row twice.
func dedupeEdges(edges []models.EdgeInput) []models.EdgeInput {
	pos := make(map[edgeKey]int, len(edges))
	out := make([]models.EdgeInput, 0, len(edges))

	for _, e := range edges {
		k := edgeKey{e.Source, e.Target, e.Label}
		if i, ok := pos[k]; ok {
			out[i].Properties = e.Properties

			continue
		}

		pos[k] = len(out)
		out = append(out, e)
	}

	return out
}

// UpsertEdges writes edges in one transaction. Existing edges get their
// properties replaced.
func (s *BulkStore) UpsertEdges(ctx context.Context, tenantID string, edges []models.EdgeInput) (*models.UpsertEdgesResult, error) { //nolint:funlen // three dependent statements.
	res := &models.UpsertEdgesResult{}
	if len(edges) == 0 {
		return res, nil
	}

	edges = dedupeEdges(edges)

	// Encode properties BEFORE opening the transaction to minimize lock time.
	encodedProps := make([]string, len(edges))
	for i, e := range edges {
		props := e.Properties
		if props == nil {
			props = map[string]any{}
		}

		data, err := json.Marshal(props)
		if err != nil {
			return nil, fmt.Errorf("encoding edge %s->%s properties: %w", e.Source, e.Target, err)
		}

		encodedProps[i] = string(data)
	}

	vertexSet := make(map[string]struct{})
	labelSet := make(map[string]struct{})

	for _, e := range edges {
		vertexSet[e.Source] = struct{}{}
		vertexSet[e.Target] = struct{}{}
		labelSet[e.Label] = struct{}{}
	}

	vertices := setKeys(vertexSet)
	labels := setKeys(labelSet)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("upsert edges: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx,
		`INSERT INTO kg_nodes (tenant_id, id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (tenant_id, id) DO NOTHING`,
		tenantID, vertices,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting vertices: %w", err)
	}

	res.Vertices = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx,
		`INSERT INTO kg_edge_labels (tenant_id, name)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (tenant_id, name) DO NOTHING`,
		tenantID, labels,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting labels: %w", err)
	}

	res.Labels = int(tag.RowsAffected())

	labelIDs, err := s.labelIDs(ctx, tx, tenantID, labels)
	if err != nil {
		return nil, err
	}

	// Process in batches to stay within parameter limits.
	for i := 0; i < len(edges); i += maxBulkBatchSize {
		end := min(i+maxBulkBatchSize, len(edges))

		batch := edges[i:end]
		batchProps := encodedProps[i:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*5)

		for j, e := range batch {
			base := j*5 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d::jsonb)",
				base, base+1, base+2, base+3, base+4,
			))
			args = append(args, tenantID, e.Source, e.Target, labelIDs[e.Label], batchProps[j])
		}

		sql := `INSERT INTO kg_edges (tenant_id, source, target, label_id, properties)
			VALUES ` + strings.Join(valueParts, ", ") + `
			ON CONFLICT (tenant_id, source, label_id, target) DO UPDATE
			SET properties = EXCLUDED.properties,
				updated_at = NOW()`

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("upserting edges batch: %w", err)
		}

		res.Edges += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing edge upsert: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"edges":     res.Edges,
		"vertices":  res.Vertices,
		"labels":    res.Labels,
	}).Debug("edges upserted")

	return res, nil
}

func (s *BulkStore) labelIDs(ctx context.Context, tx pgx.Tx, tenantID string, names []string) (map[string]int64, error) {
	rows, err := tx.Query(ctx,
		"SELECT name, id FROM kg_edge_labels WHERE tenant_id = $1 AND name = ANY($2)",
		tenantID, names,
	)
	if err != nil {
		return nil, fmt.Errorf("loading label ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, len(names))

	for rows.Next() {
		var (
			name string
			id   int64
		)

		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scanning label id: %w", err)
		}

		ids[name] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating label ids: %w", err)
	}

	return ids, nil
}

func setKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	return out
}
