// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [catalog.yaml]",
		Short: "Keep the store in sync with a catalog file",
		Long: `Watch imports a catalog file and re-imports it whenever its modification
time or size changes, until interrupted. The file is checked every
catalog.sync_interval and, unless catalog.notify is false, right after it
is written. Each import replaces the store
contents. The file defaults to catalog.seed_path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Catalog.SeedPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no catalog file given and catalog.seed_path is not set")
			}
			// The sync service does the first import itself.
			a.skipSeed = true

			return a.withEngine(cmd, func(ctx context.Context) error {
				return a.watch(ctx, path)
			})
		},
	}
}

// watch runs the catalog sync service under a supervisor tree until ctx ends.
func (a *app) watch(ctx context.Context, path string) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(a.logger), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	svc := services.NewCatalogSyncService(services.CatalogSyncConfig{
		Path:       path,
		Interval:   a.cfg.Catalog.SyncInterval,
		Dimensions: a.cfg.EngineConfig().Dimensions,
		Notify:     a.cfg.Catalog.Notify,
	}, a.store, a.engine, a.logger)
	tree.AddCatalogService(svc)

	a.logger.Info().
		Str("path", path).
		Dur("interval", a.cfg.Catalog.SyncInterval).
		Msg("watching catalog")

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		a.logger.Warn().Int("count", len(report)).Msg("services did not stop in time")
	}
	a.logger.Info().
		Int("imports", svc.Runs(services.SyncImported)).
		Int("failures", svc.Runs(services.SyncFailed)).
		Msg("catalog watch stopped")
	return err
}
