// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/recommend"
)

// songSummary is a song with its current popularity score.
type songSummary struct {
	recommend.Song
	Popularity float64 `json:"popularity"`
}

func newSongsCmd(a *app) *cobra.Command {
	var filter recommend.CandidateFilter

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "List songs in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context) error {
				songs, err := a.store.ListCandidates(ctx, filter)
				if err != nil {
					return err
				}
				out := make([]songSummary, 0, len(songs))
				for i := range songs {
					pop, err := a.store.GetPopularityScore(ctx, songs[i].ID)
					if err != nil {
						return err
					}
					out = append(out, songSummary{Song: songs[i], Popularity: pop})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Artist, "artist", "", "Only songs by this artist")
	cmd.Flags().StringVar(&filter.Genre, "genre", "", "Only songs of this genre")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of songs (0 for all)")
	return cmd
}
