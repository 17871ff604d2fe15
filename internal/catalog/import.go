// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Writer is the write side of a song store.
type Writer interface {
	// PutSong inserts or replaces a song with its vectors and base popularity.
	PutSong(ctx context.Context, song recommend.Song, popularity float64) error

	// RecordLike records that a user liked a song.
	RecordLike(ctx context.Context, userID string, id recommend.SongID) error

	// RecordPlay records that a user played a song.
	RecordPlay(ctx context.Context, userID string, id recommend.SongID) error
}

// Resetter is a Writer that can drop everything it holds.
type Resetter interface {
	Writer

	// Reset removes all songs and interactions.
	Reset(ctx context.Context) error
}

// Result summarizes an import.
type Result struct {
	Songs    int           `json:"songs"`
	Users    int           `json:"users"`
	Likes    int           `json:"likes"`
	Plays    int           `json:"plays"`
	Duration time.Duration `json:"duration"`
}

// Import writes every song and user interaction of c into w. Songs are
// written before interactions. Import stops at the first error; songs
// already written stay written.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Import(ctx context.Context, c *Catalog, w Writer, logger zerolog.Logger) (Result, error) {
	start := time.Now()
	res, err := importAll(ctx, c, w)
	res.Duration = time.Since(start)

	metrics.RecordCatalogImport(res.Songs, res.Duration, err)
	if err != nil {
		logger.Error().Err(err).Int("songs_written", res.Songs).Msg("catalog import failed")
		return res, err
	}

	logger.Info().
		Int("songs", res.Songs).
		Int("users", res.Users).
		Int("likes", res.Likes).
		Int("plays", res.Plays).
		Dur("duration", res.Duration).
		Msg("catalog imported")
	return res, nil
}

// Replace resets w and imports c into it, making the catalog the only source
// of songs and interactions. A sync loop uses it so repeated imports do not
// double-count likes and plays.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Replace(ctx context.Context, c *Catalog, w Resetter, logger zerolog.Logger) (Result, error) {
	if err := w.Reset(ctx); err != nil {
		metrics.RecordCatalogImport(0, 0, err)
		logger.Error().Err(err).Msg("catalog reset failed")
		return Result{}, fmt.Errorf("reset store: %w", err)
	}
	return Import(ctx, c, w, logger)
}

func importAll(ctx context.Context, c *Catalog, w Writer) (Result, error) {
	var res Result

	for i := range c.Songs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e := &c.Songs[i]
		song, err := e.Song()
		if err != nil {
			return res, fmt.Errorf("song %s: %w", e.SongID(), err)
		}
		if err := w.PutSong(ctx, song, e.Popularity); err != nil {
			return res, fmt.Errorf("put song %s: %w", song.ID, err)
		}
		res.Songs++
	}

	for i := range c.Users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		u := &c.Users[i]
		for _, id := range u.Liked {
			if err := w.RecordLike(ctx, u.ID, recommend.SongID(id)); err != nil {
				return res, fmt.Errorf("record like %s/%s: %w", u.ID, id, err)
			}
			res.Likes++
		}
		for _, id := range u.Played {
			if err := w.RecordPlay(ctx, u.ID, recommend.SongID(id)); err != nil {
				return res, fmt.Errorf("record play %s/%s: %w", u.ID, id, err)
			}
			res.Plays++
		}
		res.Users++
	}
	return res, nil
}
