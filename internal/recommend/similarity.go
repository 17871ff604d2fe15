// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Cosine returns the cosine similarity of a and b.
// It fails if the lengths differ or either vector has no direction.
func Cosine(a, b FusedVector) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	na, err := magnitude(a, "first operand")
	if err != nil {
		return 0, err
	}
	nb, err := magnitude(b, "second operand")
	if err != nil {
		return 0, err
	}
	s, ok := cosineScore(a, b, na, nb)
	if !ok {
		return 0, &DegenerateVectorError{What: "operands", NonFinite: true}
	}
	return s, nil
}

// magnitude returns the norm of v, failing when v has no direction.
func magnitude(v FusedVector, what string) (float64, error) {
	n := norm(v)
	if n == 0 {
		return 0, &DegenerateVectorError{What: what}
	}
	if !finite(n) {
		return 0, &DegenerateVectorError{What: what, NonFinite: true}
	}
	return n, nil
}

// cosineScore divides the dot product by the norms in steps so that large
// but finite magnitudes do not overflow. ok is false for a NaN result.
func cosineScore(a, b FusedVector, na, nb float64) (float64, bool) {
	s := dot(a, b) / na / nb
	if math.IsNaN(s) {
		return 0, false
	}
	return clampScore(s), true
}

// Rank scores every candidate against query by cosine similarity and returns
// the top k, ordered by score descending with ties broken by ascending song ID.
//
// k <= 0 or an empty candidate list yields an empty ranking. A query with zero
// magnitude or non-finite values fails with DegenerateVectorError. Such
// candidates are skipped and counted. Any candidate whose length differs from the query
// fails with DimensionMismatchError. Candidates are not modified.
func Rank(query FusedVector, candidates []Candidate, k int) (Ranking, error) {
	if k <= 0 || len(candidates) == 0 {
		return Ranking{Results: []RankedResult{}}, nil
	}

	qn, err := magnitude(query, "query")
	if err != nil {
		return Ranking{}, err
	}

	results, skipped, err := scoreAll(query, qn, candidates)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{Results: topK(results, k), Skipped: skipped}, nil
}

// RankParallel is Rank with scoring split across workers goroutines.
// Each worker ranks a contiguous chunk; the partial top-k lists are merged
// with the same ordering, so the output equals Rank's output.
// workers <= 0 means runtime.NumCPU().
func RankParallel(ctx context.Context, query FusedVector, candidates []Candidate, k, workers int) (Ranking, error) {
	if k <= 0 || len(candidates) == 0 {
		return Ranking{Results: []RankedResult{}}, nil
	}

	qn, err := magnitude(query, "query")
	if err != nil {
		return Ranking{}, err
	}

	// Neither a partial nor the merged list can hold more than every candidate.
	k = min(k, len(candidates))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}
	chunk := (len(candidates) + workers - 1) / workers

	partials := make([][]RankedResult, workers)
	skips := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(candidates) {
			break
		}
		hi := min(lo+chunk, len(candidates))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, skipped, err := scoreAll(query, qn, candidates[lo:hi])
			if err != nil {
				return err
			}
			partials[w] = topK(results, k)
			skips[w] = skipped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Ranking{}, fmt.Errorf("parallel rank: %w", err)
	}

	total := 0
	for w := range partials {
		total += len(partials[w])
	}
	merged := make([]RankedResult, 0, total)
	skipped := 0
	for w := range partials {
		merged = append(merged, partials[w]...)
		skipped += skips[w]
	}
	return Ranking{Results: topK(merged, k), Skipped: skipped}, nil
}

// scoreAll computes the cosine score of every non-degenerate candidate.
func scoreAll(query FusedVector, qn float64, candidates []Candidate) ([]RankedResult, int, error) {
	results := make([]RankedResult, 0, len(candidates))
	skipped := 0

	for i := range candidates {
		c := &candidates[i]
		if len(c.Vector) != len(query) {
			return nil, 0, &DimensionMismatchError{Want: len(query), Got: len(c.Vector)}
		}
		cn := norm(c.Vector)
		if cn == 0 || !finite(cn) {
			skipped++
			continue
		}
		score, ok := cosineScore(query, c.Vector, qn, cn)
		if !ok {
			skipped++
			continue
		}
		results = append(results, RankedResult{Candidate: *c, Score: score})
	}
	return results, skipped, nil
}

// topK sorts results in place by rankLess and truncates to k.
func topK(results []RankedResult, k int) []RankedResult {
	sort.SliceStable(results, func(i, j int) bool {
		return rankLess(results[i], results[j])
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// rankLess orders by score descending, then song ID ascending.
//
//nolint:gocritic // hugeParam: comparator over values keeps call sites simple
func rankLess(a, b RankedResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Candidate.Song.ID < b.Candidate.Song.ID
}

func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
