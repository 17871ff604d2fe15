// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/catalog"
)

func newImportCmd(a *app) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Import songs and interactions from a catalog file",
		Long: `Import reads a YAML catalog, checks every vector against the configured
dimensions and writes songs, likes and plays to the store.

Without --replace the catalog is merged: songs are upserted and likes and
plays are added to the existing counts. With --replace the store is wiped
first, so the catalog becomes the only source of data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.skipSeed = true
			c, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			if err := c.CheckDimensions(a.cfg.EngineConfig().Dimensions); err != nil {
				return fmt.Errorf("catalog %s: %w", args[0], err)
			}

			return a.withEngine(cmd, func(ctx context.Context) error {
				var res catalog.Result
				if replace {
					res, err = catalog.Replace(ctx, c, a.store, a.logger)
				} else {
					res, err = catalog.Import(ctx, c, a.store, a.logger)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Wipe the store before importing")
	return cmd
}
