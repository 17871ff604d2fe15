// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// interaction is the output of like and play.
type interaction struct {
	User       string           `json:"user"`
	Song       recommend.SongID `json:"song"`
	Action     string           `json:"action"`
	Popularity float64          `json:"popularity,omitempty"`
}

// newInteractionCmd builds the like or play command. The song does not have
// to be in the catalog yet.
func newInteractionCmd(a *app, action string) *cobra.Command {
	short := "Record that a user liked a song"
	if action == "play" {
		short = "Record that a user played a song"
	}

	return &cobra.Command{
		Use:   action + " <user> <song-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, id := args[0], recommend.SongID(args[1])

			return a.withEngine(cmd, func(ctx context.Context) error {
				record := a.store.RecordLike
				if action == "play" {
					record = a.store.RecordPlay
				}
				if err := record(ctx, user, id); err != nil {
					return err
				}
				logging.Ctx(ctx).Info().Str("user", user).Str("song", string(id)).Str("action", action).Msg("interaction recorded")

				out := interaction{User: user, Song: id, Action: action}
				// Unknown songs have no popularity yet.
				if pop, err := a.store.GetPopularityScore(ctx, id); err == nil {
					out.Popularity = pop
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}
