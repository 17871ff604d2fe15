// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/reranking"
	"github.com/tomtom215/cadence/internal/store/badgerstore"
	"github.com/tomtom215/cadence/internal/store/memstore"
	"github.com/tomtom215/cadence/internal/store/sqlitestore"
)

// songStore is what the CLI needs from a backend: the engine's read ports
// plus catalog writes.
type songStore interface {
	recommend.VectorStore
	recommend.ProfileSource
	catalog.Resetter
}

// withEngine opens the store and engine, runs fn, then releases everything.
func (a *app) withEngine(cmd *cobra.Command, fn func(ctx context.Context) error) (err error) {
	ctx := logging.ContextWithLogger(cmd.Context(), a.logger)
	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	if err := a.open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(cmd); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx)
}

// open initializes the store, seeds it when empty and builds the engine.
func (a *app) open(ctx context.Context) error {
	store, closeFn, err := openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.store, a.closeFn = store, closeFn

	if !a.skipSeed && a.cfg.Catalog.SeedPath != "" {
		if err := a.seed(ctx); err != nil {
			_ = closeFn()
			return err
		}
	}

	engine, err := recommend.NewEngine(a.cfg.EngineConfig(), store, store, a.logger)
	if err != nil {
		_ = closeFn()
		return fmt.Errorf("create engine: %w", err)
	}
	registerRerankers(engine, a.cfg, a.logger)
	a.engine = engine
	return nil
}

// close shuts the store and, when enabled, dumps metrics.
func (a *app) close(cmd *cobra.Command) error {
	var err error
	if a.closeFn != nil {
		err = a.closeFn()
		a.closeFn = nil
	}
	if a.cfg != nil && a.cfg.Metrics.Dump {
		if werr := metrics.WriteText(cmd.ErrOrStderr(), prometheus.DefaultGatherer); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	return err
}

// openStore returns the configured backend and its close function.
func openStore(ctx context.Context, cfg *config.Config) (songStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memstore.New(), func() error { return nil }, nil
	case config.BackendBadger:
		s, err := badgerstore.Open(cfg.Store.Path, cfg.Store.InMemory)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, cfg.Store.SQLitePath, cfg.Store.InMemory)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// seed imports the configured seed catalog into an empty store. A persistent
// store that already holds songs is left alone.
func (a *app) seed(ctx context.Context) error {
	existing, err := a.store.ListCandidates(ctx, recommend.CandidateFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if len(existing) > 0 {
		a.logger.Debug().Str("path", a.cfg.Catalog.SeedPath).Msg("store not empty, skipping seed")
		return nil
	}

	c, err := catalog.Load(a.cfg.Catalog.SeedPath)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if err := c.CheckDimensions(a.cfg.EngineConfig().Dimensions); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if _, err := catalog.Import(ctx, c, a.store, a.logger); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

// registerRerankers registers diversity rerankers based on configuration.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func registerRerankers(engine *recommend.Engine, cfg *config.Config, logger zerolog.Logger) {
	if cfg.Recommend.MMRLambda < 1.0 {
		engine.RegisterReranker(reranking.NewMMR(cfg.Recommend.MMRLambda))
		logger.Debug().
			Float64("lambda", cfg.Recommend.MMRLambda).
			Msg("MMR diversity reranker registered")
	}
}
