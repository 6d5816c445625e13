// Command provision-tenant creates a tenant with a fresh API key and can seed
// its graph from a YAML file.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./scripts/provision-tenant -name acme [-graph graph.yaml]
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/db"
	"github.com/persistorai/neighborrank/internal/db/migrations"
	"github.com/persistorai/neighborrank/internal/dbpool"
	"github.com/persistorai/neighborrank/internal/memgraph"
	"github.com/persistorai/neighborrank/internal/models"
	"github.com/persistorai/neighborrank/internal/store"
)

func main() {
	name := flag.String("name", "", "tenant name (required)")
	graphPath := flag.String("graph", "", "optional YAML graph to load for the tenant")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *name == "" || os.Getenv("DATABASE_URL") == "" {
		log.Fatal("-name and DATABASE_URL are required")
	}

	apiKey, err := newAPIKey()
	if err != nil {
		log.WithError(err).Fatal("generating api key")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, os.Getenv("DATABASE_URL"), 4)
	if err != nil {
		log.WithError(err).Fatal("connecting to database")
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		log.WithError(err).Fatal("running migrations")
	}

	tenantID, err := store.NewTenantStore(pool).CreateTenant(ctx, *name, apiKey)
	if err != nil {
		log.WithError(err).Fatal("creating tenant")
	}

	log.WithFields(logrus.Fields{"tenant_id": tenantID, "name": *name}).Info("tenant created")

	if *graphPath != "" {
		if err := seed(ctx, store.NewBulkStore(store.Base{Pool: pool, Log: log}), tenantID, *graphPath, log); err != nil {
			log.WithError(err).Fatal("seeding graph")
		}
	}

	// The key is only shown once; the database keeps its hash.
	fmt.Println(apiKey)
}

func newAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return "nr_" + hex.EncodeToString(b), nil
}

func seed(ctx context.Context, bulk *store.BulkStore, tenantID, path string, log *logrus.Logger) error {
	fh, err := os.Open(path) //nolint:gosec // path comes from the operator.
	if err != nil {
		return err
	}
	defer fh.Close()

	f, err := memgraph.Decode(fh)
	if err != nil {
		return err
	}

	total := models.UpsertEdgesResult{}

	for start := 0; start < len(f.Edges); start += models.MaxUpsertEdges {
		end := min(start+models.MaxUpsertEdges, len(f.Edges))

		res, err := bulk.UpsertEdges(ctx, tenantID, f.Edges[start:end])
		if err != nil {
			return fmt.Errorf("edges %d-%d: %w", start, end, err)
		}

		total.Edges += res.Edges
		total.Vertices += res.Vertices
		total.Labels += res.Labels
	}

	log.WithFields(logrus.Fields{
		"edges":    total.Edges,
		"vertices": total.Vertices,
		"labels":   total.Labels,
	}).Info("graph seeded")

	return nil
}
