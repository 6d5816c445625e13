package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/rank"
)

// GraphStore reads the property graph for rank runs.
type GraphStore struct {
	Base
	labels *LabelCache
}

// NewGraphStore creates a GraphStore with the given shared base and label cache.
func NewGraphStore(base Base, labels *LabelCache) *GraphStore {
	return &GraphStore{Base: base, labels: labels}
}

// ForTenant returns a rank.Graph bound to one tenant.
func (s *GraphStore) ForTenant(tenantID string) rank.Graph {
	return &tenantGraph{store: s, tenantID: tenantID}
}

// Compile-time check: *tenantGraph must satisfy rank.Graph.
var _ rank.Graph = (*tenantGraph)(nil)

type tenantGraph struct {
	store    *GraphStore
	tenantID string
}

// VertexExists reports whether v is a vertex of the tenant's graph.
func (g *tenantGraph) VertexExists(ctx context.Context, v rank.VertexID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := g.store.beginReadTx(ctx, g.tenantID)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx; rollback is cleanup.

	var exists bool

	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM kg_nodes WHERE tenant_id = $1 AND id = $2)",
		g.tenantID, string(v),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking vertex %q: %w", v, err)
	}

	return exists, nil
}

// ResolveLabel maps a label name to its id through the label cache.
func (g *tenantGraph) ResolveLabel(ctx context.Context, name string) (rank.LabelID, error) {
	return g.store.labels.Resolve(ctx, g.tenantID, name, func(ctx context.Context) (rank.LabelID, error) {
		return g.lookupLabel(ctx, name)
	})
}

func (g *tenantGraph) lookupLabel(ctx context.Context, name string) (rank.LabelID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := g.store.beginReadTx(ctx, g.tenantID)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx; rollback is cleanup.

	var id int64

	err = tx.QueryRow(ctx,
		"SELECT id FROM kg_edge_labels WHERE tenant_id = $1 AND name = $2",
		g.tenantID, name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrLabelNotFound
	}

	if err != nil {
		return 0, fmt.Errorf("looking up label %q: %w", name, err)
	}

	return rank.LabelID(id), nil
}

// Neighbors streams the distinct neighbors of v in ascending id order.
// Rows are read lazily; breaking out of the loop closes the cursor and
// releases the connection.
func (g *tenantGraph) Neighbors(ctx context.Context, v rank.VertexID, q rank.NeighborQuery) iter.Seq2[rank.VertexID, error] {
	return func(yield func(rank.VertexID, error) bool) {
		sql, args, err := neighborQuery(g.tenantID, v, q)
		if err != nil {
			yield("", err)

			return
		}

		ctx, cancel := withTimeout(ctx)
		defer cancel()

		tx, err := g.store.beginReadTx(ctx, g.tenantID)
		if err != nil {
			yield("", err)

			return
		}
		defer tx.Rollback(ctx) //nolint:errcheck // read-only tx; rollback is cleanup.

		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			yield("", fmt.Errorf("querying neighbors: %w", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var peer string
			if err := rows.Scan(&peer); err != nil {
				yield("", fmt.Errorf("scanning neighbor: %w", err))

				return
			}

			if !yield(rank.VertexID(peer), nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("iterating neighbors: %w", err))
		}
	}
}

// neighborQuery builds the SQL for one neighbor fetch. Label and property
// filters and the degree cap are pushed down so Postgres does the sampling.
func neighborQuery(tenantID string, v rank.VertexID, q rank.NeighborQuery) (string, []any, error) {
	args := []any{tenantID, string(v)}

	var filters strings.Builder

	if len(q.Labels) > 0 {
		ids := make([]int64, len(q.Labels))
		for i, l := range q.Labels {
			ids[i] = int64(l)
		}

		args = append(args, ids)
		filters.WriteString(" AND label_id = ANY($" + strconv.Itoa(len(args)) + ")")
	}

	if !q.Properties.Empty() {
		props, err := json.Marshal(q.Properties.Map())
		if err != nil {
			return "", nil, fmt.Errorf("encoding property filter: %w", err)
		}

		args = append(args, string(props))
		filters.WriteString(" AND properties @> $" + strconv.Itoa(len(args)) + "::jsonb")
	}

	out := "SELECT target AS peer FROM kg_edges WHERE tenant_id = $1 AND source = $2" + filters.String()
	in := "SELECT source AS peer FROM kg_edges WHERE tenant_id = $1 AND target = $2" + filters.String()

	var inner string

	switch q.Direction {
	case rank.Out:
		inner = out
	case rank.In:
		inner = in
	case rank.Both:
		inner = out + " UNION ALL " + in
	default:
		return "", nil, fmt.Errorf("unsupported direction %v", q.Direction)
	}

	// COLLATE "C" orders bytewise so samples match the in-memory graph.
	sql := `SELECT DISTINCT peer COLLATE "C" AS peer FROM (` + inner + `) n ORDER BY 1`

	if q.Limit != rank.Unbounded {
		args = append(args, q.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}

	return sql, args, nil
}
