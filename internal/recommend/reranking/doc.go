// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package reranking implements post-processing of ranked recommendations.
//
// Rerankers run after similarity ranking and before truncation to K:
//
//	Fuse -> Rank (cosine, top K*overfetch) -> Rerankers -> top K
//
// The engine applies rerankers to the similarity modes only (by-song,
// by-mood, by-image, personalized). Popular results are never reranked.
//
// # MMR
//
// Maximal Marginal Relevance iteratively selects the candidate maximizing
//
//	lambda * score(i) - (1-lambda) * max_sim(i, selected)
//
// where sim is the cosine similarity of the candidates' fused vectors. When
// either candidate lacks a fused vector, sim falls back to metadata: 1 for
// the same artist, 0.5 for the same genre, 0 otherwise.
//
// With lambda = 1 the input order is preserved, so registering MMR at its
// default configuration leaves rankings unchanged.
//
// # Thread Safety
//
// Rerankers are stateless and safe for concurrent use.
package reranking
