// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

// ProfileStrategy builds a taste vector from the fused vectors of a user's
// liked or played songs.
type ProfileStrategy interface {
	// Name returns the strategy identifier.
	Name() string

	// Profile combines history vectors into one query vector. An empty history
	// fails with InsufficientHistoryError.
	Profile(history []FusedVector) (FusedVector, error)
}

// CentroidStrategy uses the componentwise mean of the history vectors.
type CentroidStrategy struct{}

// Name returns the strategy identifier.
func (CentroidStrategy) Name() string {
	return "centroid"
}

// Profile returns the componentwise mean of history.
func (CentroidStrategy) Profile(history []FusedVector) (FusedVector, error) {
	if len(history) == 0 {
		return nil, &InsufficientHistoryError{}
	}

	dim := len(history[0])
	centroid := make(FusedVector, dim)
	for _, v := range history {
		if len(v) != dim {
			return nil, &DimensionMismatchError{Want: dim, Got: len(v)}
		}
		for i, x := range v {
			centroid[i] += x
		}
	}

	n := float64(len(history))
	for i := range centroid {
		centroid[i] /= n
	}
	return centroid, nil
}

var _ ProfileStrategy = CentroidStrategy{}
