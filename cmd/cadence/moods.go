// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/recommend"
)

func newMoodsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "moods",
		Short: "List supported mood labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), recommend.Moods())
		},
	}
}
