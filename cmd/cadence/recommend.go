// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// recommendFlags are shared by every recommend subcommand.
type recommendFlags struct {
	k      int
	artist string
	genre  string
}

func newRecommendCmd(a *app) *cobra.Command {
	f := &recommendFlags{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank songs by similarity or popularity",
		Long: `Recommend returns up to K songs as JSON, best first. Ties are broken by
ascending song ID so output is stable across runs.`,
	}

	flags := cmd.PersistentFlags()
	flags.IntVarP(&f.k, "k", "k", 0, "Number of results (0 for the configured default)")
	flags.StringVar(&f.artist, "artist", "", "Only recommend songs by this artist")
	flags.StringVar(&f.genre, "genre", "", "Only recommend songs of this genre")

	cmd.AddCommand(
		newRecommendSongCmd(a, f),
		newRecommendMoodCmd(a, f),
		newRecommendImageCmd(a, f),
		newRecommendUserCmd(a, f),
		newRecommendPopularCmd(a, f),
	)
	return cmd
}

func newRecommendSongCmd(a *app, f *recommendFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "song <song-id>",
		Short: "Songs similar to a seed song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, f, recommend.BySong{SongID: recommend.SongID(args[0])})
		},
	}
}

func newRecommendMoodCmd(a *app, f *recommendFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mood <label>",
		Short: "Songs matching a mood",
		Long:  "Songs matching a mood. Supported labels: " + strings.Join(recommend.Moods(), ", ") + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, f, recommend.ByMood{Label: args[0]})
		},
	}
}

func newRecommendImageCmd(a *app, f *recommendFlags) *cobra.Command {
	var vectorFile string

	cmd := &cobra.Command{
		Use:   "image [v1,v2,...]",
		Short: "Songs whose cover art resembles an image vector",
		Long: `Songs whose cover art resembles an image vector. The vector is given
either as comma-separated numbers or as a JSON array in --vector-file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				vec recommend.ModalityVector
				err error
			)
			switch {
			case vectorFile != "" && len(args) > 0:
				return errors.New("give the vector as an argument or with --vector-file, not both")
			case vectorFile != "":
				vec, err = readVectorFile(vectorFile)
			case len(args) == 1:
				vec, err = parseVector(args[0])
			default:
				return errors.New("an image vector is required")
			}
			if err != nil {
				return err
			}
			return a.runQuery(cmd, f, recommend.ByImage{Vector: vec})
		},
	}

	cmd.Flags().StringVar(&vectorFile, "vector-file", "", "JSON file holding the image vector")
	return cmd
}

func newRecommendUserCmd(a *app, f *recommendFlags) *cobra.Command {
	var fallback bool

	cmd := &cobra.Command{
		Use:   "user <user-id>",
		Short: "Songs matching a user's liked and played songs",
		Long: `Songs matching a user's liked and played songs. A user without usable
history is an error unless --fallback-popular is set, in which case the
most popular songs are returned instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := recommend.Personalized{UserID: args[0]}
			if !fallback {
				return a.runQuery(cmd, f, q)
			}

			return a.withEngine(cmd, func(ctx context.Context) error {
				resp, err := a.engine.Recommend(ctx, f.request(q))
				if errors.Is(err, recommend.ErrInsufficientHistory) {
					logging.Ctx(ctx).Info().Str("user", args[0]).Msg("no usable history, falling back to popular")
					resp, err = a.engine.Recommend(ctx, f.request(recommend.Popular{}))
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().BoolVar(&fallback, "fallback-popular", false, "Return popular songs when the user has no usable history")
	return cmd
}

func newRecommendPopularCmd(a *app, f *recommendFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "popular",
		Short: "The most popular songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd, f, recommend.Popular{})
		},
	}
}

func (f *recommendFlags) request(q recommend.Query) recommend.Request {
	return recommend.Request{
		Query:  q,
		K:      f.k,
		Filter: recommend.CandidateFilter{Artist: f.artist, Genre: f.genre},
	}
}

// runQuery runs one recommendation and prints the response.
func (a *app) runQuery(cmd *cobra.Command, f *recommendFlags, q recommend.Query) error {
	return a.withEngine(cmd, func(ctx context.Context) error {
		resp, err := a.engine.Recommend(ctx, f.request(q))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), resp)
	})
}

// parseVector parses comma-separated finite numbers.
func parseVector(s string) (recommend.ModalityVector, error) {
	parts := strings.Split(s, ",")
	vec := make(recommend.ModalityVector, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("vector element %d: %w", i,
				&recommend.DegenerateVectorError{What: "image vector", NonFinite: true})
		}
		vec = append(vec, v)
	}
	return vec, nil
}

// readVectorFile reads a JSON array of numbers.
func readVectorFile(path string) (recommend.ModalityVector, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-supplied CLI argument
	if err != nil {
		return nil, err
	}
	var vec recommend.ModalityVector
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("vector file %s: %w", path, err)
	}
	return vec, nil
}
