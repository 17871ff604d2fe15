// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package recommend implements multimodal feature fusion and similarity ranking
// for music recommendations.
//
// # Architecture
//
// Every song carries pre-computed feature vectors for up to three modalities
// (audio, cover image, lyrics text). The engine combines them into a single
// comparable vector and ranks candidates by cosine similarity:
//
//   - Fuser: weighted concatenation of modality vectors under a FusionPolicy
//   - MoodMapper: fixed mood labels mapped to vectors in the fused space
//   - Rank / RankParallel: deterministic top-k cosine ranking
//   - ProfileStrategy: builds a taste vector from a user's history
//   - Engine: dispatches the recommendation modes and annotates results
//
// # Modes
//
//   - BySong: songs similar to a seed song (seed excluded)
//   - ByMood: songs matching one of happy, sad, energetic, calm, romantic, melancholic
//   - ByImage: songs whose cover art resembles an uploaded image vector
//   - Personalized: songs close to the centroid of a user's liked or played songs
//   - Popular: songs ordered by popularity score
//
// # Determinism
//
// Ranking is a pure function of its inputs. Ties are broken by ascending
// song ID, so identical inputs always produce identical output, whether the
// sequential or the parallel ranking path is taken.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), store, store, logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.RecommendByMood(ctx, "calm", 10)
//	if errors.Is(err, recommend.ErrUnknownMood) {
//	    // show recommend.Moods() to the user
//	}
//
// # Thread Safety
//
// The Engine is safe for concurrent use. Policies and mood vectors are
// immutable after construction, and fused vectors are never mutated once
// produced.
package recommend
