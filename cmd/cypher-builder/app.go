package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/DeusData/cypher-builder/internal/config"
	"github.com/DeusData/cypher-builder/internal/metrics"
	"github.com/DeusData/cypher-builder/internal/sampling"
	"github.com/DeusData/cypher-builder/internal/schema"
	"github.com/DeusData/cypher-builder/internal/session"
	"github.com/DeusData/cypher-builder/internal/store"
	"github.com/DeusData/cypher-builder/internal/watcher"
)

// app holds the long-lived parts shared by the mcp and serve commands.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Collector
	sessions *session.Manager
	store    *store.Store
	pool     *sampling.Pool
	watcher  *watcher.Watcher
}

func newApp(g *globalFlags) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, metrics: metrics.New("cypher_builder")}

	opts := session.DefaultOptions()
	opts.Limits = cfg.EffectiveLimits()
	opts.DeleteX = cfg.EffectiveDeleteThresholdX()
	opts.Metrics = a.metrics
	a.sessions = session.NewManager(opts)

	if cfg.SchemaFile != "" {
		a.watcher = watcher.New(cfg.SchemaFile, a.sessions.SetSchema)
		if err := a.watcher.Load(); err != nil {
			return nil, err
		}
	}

	if !g.noStore {
		if a.store, err = openStore(cfg); err != nil {
			// the cache is optional; the builder works without it
			slog.Warn("store.open", "err", err)
		}
	}
	if a.store != nil && cfg.SchemaFile == "" {
		a.restoreSchema()
	}

	a.pool = sampling.NewPool(cfg.EffectiveSampling(), a.metrics)
	return a, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Store.Path == "" && cfg.EffectiveStoreDriver() == store.DriverPure {
		return store.Open()
	}
	path := cfg.Store.Path
	if path == "" {
		dir, err := store.CacheDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "cache.db")
	}
	return store.OpenPath(path, cfg.EffectiveStoreDriver())
}

// restoreSchema installs the cached snapshot of the most recently used
// connection so a restart does not need to sample again.
func (a *app) restoreSchema() {
	last, err := a.store.LastConnection()
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Warn("store.last_connection", "err", err)
		return
	}
	snap, err := a.store.LoadSchema(last.Key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("store.load_schema", "connection", last.Key, "err", err)
		}
		return
	}
	a.sessions.SetSchema(snap.Schema)
	slog.Info("store.schema.restored", "connection", last.Key, "sampled_at", snap.SampledAt)
}

// watch follows the schema file until ctx is done.
func (a *app) watch(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	go func() {
		if err := a.watcher.Run(ctx); err != nil {
			slog.Warn("watcher.run", "err", err)
		}
	}()
}

func (a *app) close(ctx context.Context) {
	a.sessions.CloseAll()
	a.pool.Close(ctx)
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("store.close", "err", err)
		}
	}
}

// loadSchemaFile reads the schema named by --schema or the config file.
func loadSchemaFile(cfg *config.Config) (*schema.Schema, error) {
	if cfg.SchemaFile == "" {
		return nil, errors.New("no schema file: pass --schema or set schema_file")
	}
	return schema.Load(cfg.SchemaFile)
}
