// Command neighborrank serves the NeighborRank HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/api"
	"github.com/persistorai/neighborrank/internal/config"
	"github.com/persistorai/neighborrank/internal/db"
	"github.com/persistorai/neighborrank/internal/db/migrations"
	"github.com/persistorai/neighborrank/internal/dbpool"
	"github.com/persistorai/neighborrank/internal/rank"
	"github.com/persistorai/neighborrank/internal/service"
	"github.com/persistorai/neighborrank/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("neighborrank exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	policy, err := rank.ParseLimitPolicy(cfg.Rank.LimitPolicy)
	if err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	graphs := store.NewGraphStore(base, store.NewLabelCache(cfg.LabelCacheSize, cfg.LabelCacheTTL))

	rankSvc := service.NewRankService(graphs, service.RankOptions{
		Defaults: service.RankDefaults{
			Degree:   cfg.Rank.DefaultDegree,
			Capacity: cfg.Rank.DefaultCapacity,
			Limit:    cfg.Rank.DefaultLimit,
		},
		Engine:  rank.EngineConfig{Workers: cfg.Rank.Workers},
		Policy:  policy,
		Timeout: cfg.Rank.Timeout,
	}, log)

	router := api.NewRouter(&api.RouterDeps{
		Log:          log,
		Pool:         pool,
		Rank:         rankSvc,
		Edges:        service.NewEdgeService(store.NewBulkStore(base), log),
		TenantLookup: store.NewTenantStore(pool),
		CORSOrigins:  cfg.CORSOrigins,
		Version:      config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Rank.Timeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":         srv.Addr,
			"version":      config.Version,
			"workers":      cfg.Rank.Workers,
			"limit_policy": policy.String(),
		}).Info("neighborrank listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
