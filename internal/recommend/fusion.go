// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"math"
)

// MoodVector is the fused-space representation of a mood label.
type MoodVector struct {
	// Mood is the normalized mood label.
	Mood string

	// Policy is the name of the policy the vector was fused under.
	Policy string

	// Vector is the fused vector. Callers must not modify it.
	Vector FusedVector
}

// Fuser combines modality vectors into fused vectors.
// It holds only the recorded dimensions and is safe for concurrent use.
type Fuser struct {
	dims Dimensions
}

// NewFuser creates a Fuser for the given modality dimensions.
func NewFuser(dims Dimensions) (*Fuser, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	return &Fuser{dims: dims}, nil
}

// Dimensions returns the recorded modality dimensions.
func (f *Fuser) Dimensions() Dimensions {
	return f.dims
}

// Fuse combines vectors under policy.
//
// Modalities with weight 0 contribute no dimensions. A modality with positive
// weight that is absent from vectors is zero-filled to its recorded length.
// Every supplied vector is length-checked, included or not. A NaN or
// infinite component anywhere, or a result that overflows, fails with a
// DegenerateVectorError; so does a zero result under l2 normalization.
// The returned vector is freshly allocated.
func (f *Fuser) Fuse(vectors ModalityVectors, policy FusionPolicy) (FusedVector, error) {
	for m, v := range vectors {
		want := f.dims.Of(m)
		if want == 0 {
			return nil, fmt.Errorf("fuse: unknown modality %q", m)
		}
		if len(v) != want {
			return nil, &DimensionMismatchError{Modality: m, Want: want, Got: len(v)}
		}
		if !allFinite(v) {
			return nil, &DegenerateVectorError{What: string(m) + " vector", NonFinite: true}
		}
	}

	out := make(FusedVector, 0, policy.FusedDim(f.dims))
	for _, m := range canonicalOrder {
		w := policy.Weight(m)
		if w <= 0 {
			continue
		}

		v, ok := vectors[m]
		if !ok {
			out = append(out, make(FusedVector, f.dims.Of(m))...)
			continue
		}

		scale := w
		if policy.NormalizesModalities() {
			n := norm(v)
			if !finite(n) {
				return nil, &DegenerateVectorError{What: string(m) + " vector", NonFinite: true}
			}
			if n > 0 {
				scale = w / n
			}
		}
		for _, x := range v {
			out = append(out, x*scale)
		}
	}

	if !allFinite(out) {
		return nil, &DegenerateVectorError{What: "fused vector", NonFinite: true}
	}
	if policy.Normalization() == NormalizeL2 {
		n := norm(out)
		if n == 0 {
			return nil, &DegenerateVectorError{What: "fused vector"}
		}
		if !finite(n) {
			return nil, &DegenerateVectorError{What: "fused vector", NonFinite: true}
		}
		for i := range out {
			out[i] /= n
		}
	}
	return out, nil
}

// QueryFromSong builds a query vector from a seed song's modality vectors.
func (f *Fuser) QueryFromSong(vectors ModalityVectors, policy FusionPolicy) (FusedVector, error) {
	q, err := f.Fuse(vectors, policy)
	if err != nil {
		return nil, fmt.Errorf("song query: %w", err)
	}
	return q, nil
}

// QueryFromImage builds a query vector from an image vector alone. The audio
// and text sections are zero placeholders.
func (f *Fuser) QueryFromImage(image ModalityVector, policy FusionPolicy) (FusedVector, error) {
	q, err := f.Fuse(ModalityVectors{ModalityImage: image}, policy)
	if err != nil {
		return nil, fmt.Errorf("image query: %w", err)
	}
	return q, nil
}

// QueryFromMood returns a copy of the mood vector after checking that it lives
// in the fused space of policy.
func (f *Fuser) QueryFromMood(mv MoodVector, policy FusionPolicy) (FusedVector, error) {
	want := policy.FusedDim(f.dims)
	if len(mv.Vector) != want {
		return nil, fmt.Errorf("mood query: %w", &DimensionMismatchError{Want: want, Got: len(mv.Vector)})
	}
	q := make(FusedVector, len(mv.Vector))
	copy(q, mv.Vector)
	return q, nil
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
