// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package reranking

import (
	"context"
	"math"
	"strings"

	"github.com/tomtom215/cadence/internal/recommend"
)

// maxRerankSize limits slice allocations; k is also bounded by len(results).
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking over fused vectors.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// lambda balances relevance vs. diversity (0.0 to 1.0)
	lambda float64
}

// NewMMR creates a new MMR reranker. Lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 || math.IsNaN(lambda) {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Lambda returns the relevance weight.
func (m *MMR) Lambda() float64 {
	return m.lambda
}

// Rerank greedily selects up to k results. Ties keep the input order, so the
// output is deterministic for a deterministic input.
//
//nolint:gocritic // rangeValCopy: RankedResult passed by value in range, acceptable for clarity
func (m *MMR) Rerank(ctx context.Context, results []recommend.RankedResult, k int) []recommend.RankedResult {
	if len(results) == 0 || k <= 0 {
		return results
	}

	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(results) {
		k = len(results)
	}

	if m.lambda >= 1.0 {
		return results[:k]
	}

	similarities := buildSimilarityMatrix(results)

	selected := make([]recommend.RankedResult, 0, k)
	selectedIdx := make([]int, 0, k)
	taken := make([]bool, len(results))

	for len(selected) < k {
		if ctx.Err() != nil {
			break
		}

		bestIdx := -1
		bestMMR := math.Inf(-1)

		for i, r := range results {
			if taken[i] {
				continue
			}

			maxSim := 0.0
			for _, j := range selectedIdx {
				if sim := similarities[i][j]; sim > maxSim {
					maxSim = sim
				}
			}

			score := m.lambda*r.Score - (1-m.lambda)*maxSim
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			break
		}

		selected = append(selected, results[bestIdx])
		selectedIdx = append(selectedIdx, bestIdx)
		taken[bestIdx] = true
	}

	// Cancelled mid-selection: fill from the relevance order.
	for i := 0; len(selected) < k && i < len(results); i++ {
		if !taken[i] {
			selected = append(selected, results[i])
			taken[i] = true
		}
	}

	return selected
}

// buildSimilarityMatrix computes pairwise candidate similarity.
func buildSimilarityMatrix(results []recommend.RankedResult) [][]float64 {
	n := len(results)
	similarities := make([][]float64, n)
	for i := range similarities {
		similarities[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := similarity(&results[i].Candidate, &results[j].Candidate)
			similarities[i][j] = sim
			similarities[j][i] = sim
		}
	}

	return similarities
}

// similarity is the cosine of the fused vectors, or a metadata match score
// when either vector is unavailable.
func similarity(a, b *recommend.Candidate) float64 {
	if len(a.Vector) > 0 && len(a.Vector) == len(b.Vector) {
		if s, err := recommend.Cosine(a.Vector, b.Vector); err == nil {
			return s
		}
	}
	return metadataSimilarity(&a.Song, &b.Song)
}

func metadataSimilarity(a, b *recommend.Song) float64 {
	switch {
	case a.Artist != "" && strings.EqualFold(a.Artist, b.Artist):
		return 1
	case a.Genre != "" && strings.EqualFold(a.Genre, b.Genre):
		return 0.5
	default:
		return 0
	}
}

// Ensure MMR implements the interface.
var _ recommend.Reranker = (*MMR)(nil)
