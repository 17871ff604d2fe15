// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"math"
	"strings"
)

// Modality identifies the source of a feature vector.
type Modality string

const (
	// ModalityAudio is the audio feature vector.
	ModalityAudio Modality = "audio"
	// ModalityImage is the cover image feature vector.
	ModalityImage Modality = "image"
	// ModalityText is the lyrics text feature vector.
	ModalityText Modality = "text"
)

// canonicalOrder is the fixed concatenation order of fused vectors.
var canonicalOrder = [...]Modality{ModalityAudio, ModalityImage, ModalityText}

// Modalities returns all modalities in canonical order.
func Modalities() []Modality {
	out := make([]Modality, len(canonicalOrder))
	copy(out, canonicalOrder[:])
	return out
}

// ParseModality converts a case-insensitive name to a Modality.
func ParseModality(s string) (Modality, error) {
	switch Modality(strings.ToLower(strings.TrimSpace(s))) {
	case ModalityAudio:
		return ModalityAudio, nil
	case ModalityImage:
		return ModalityImage, nil
	case ModalityText:
		return ModalityText, nil
	default:
		return "", fmt.Errorf("unknown modality %q", s)
	}
}

func (m Modality) index() int {
	switch m {
	case ModalityAudio:
		return 0
	case ModalityImage:
		return 1
	case ModalityText:
		return 2
	default:
		return -1
	}
}

// Dimensions records the fixed vector length of each modality.
type Dimensions struct {
	Audio int `json:"audio"`
	Image int `json:"image"`
	Text  int `json:"text"`
}

// DefaultDimensions returns the output sizes of the feature extractors.
func DefaultDimensions() Dimensions {
	return Dimensions{Audio: 128, Image: 512, Text: 384}
}

// Of returns the recorded length for a modality, or 0 if unknown.
func (d Dimensions) Of(m Modality) int {
	switch m {
	case ModalityAudio:
		return d.Audio
	case ModalityImage:
		return d.Image
	case ModalityText:
		return d.Text
	default:
		return 0
	}
}

// Validate checks that every modality has a positive length.
func (d Dimensions) Validate() error {
	for _, m := range canonicalOrder {
		if d.Of(m) < 1 {
			return fmt.Errorf("dimensions.%s must be positive, got %d", m, d.Of(m))
		}
	}
	return nil
}

// Normalization selects the post-concatenation normalization of a fused vector.
type Normalization string

const (
	// NormalizeNone leaves the weighted concatenation as is.
	NormalizeNone Normalization = "none"
	// NormalizeL2 scales the fused vector to unit Euclidean length.
	NormalizeL2 Normalization = "l2"
)

// ParseNormalization converts a name to a Normalization. Empty means l2.
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(strings.ToLower(strings.TrimSpace(s))) {
	case NormalizeL2, "":
		return NormalizeL2, nil
	case NormalizeNone:
		return NormalizeNone, nil
	default:
		return "", fmt.Errorf("unknown normalization %q", s)
	}
}

// FusionPolicy describes how modality vectors are combined into a fused vector.
// A policy is immutable once constructed; two fused vectors are comparable only
// when produced under the same policy.
type FusionPolicy struct {
	name          string
	weights       [len(canonicalOrder)]float64
	normalization Normalization
	perModality   bool
}

// PolicyOption customizes a FusionPolicy at construction.
type PolicyOption func(*FusionPolicy)

// WithModalityNormalization scales each modality vector to unit length before
// weighting, so weights express relative importance regardless of the raw
// magnitude of each extractor's output. Zero modality vectors stay zero.
func WithModalityNormalization() PolicyOption {
	return func(p *FusionPolicy) {
		p.perModality = true
	}
}

// NewFusionPolicy validates and builds a FusionPolicy. Modalities missing from
// weights get weight 0. At least one weight must be positive.
func NewFusionPolicy(name string, weights map[Modality]float64, norm Normalization, opts ...PolicyOption) (FusionPolicy, error) {
	p := FusionPolicy{name: name, normalization: norm}

	if strings.TrimSpace(name) == "" {
		return FusionPolicy{}, fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	if norm != NormalizeNone && norm != NormalizeL2 {
		return FusionPolicy{}, fmt.Errorf("%w: unknown normalization %q", ErrInvalidPolicy, norm)
	}

	positive := false
	for m, w := range weights {
		idx := m.index()
		if idx < 0 {
			return FusionPolicy{}, fmt.Errorf("%w: unknown modality %q", ErrInvalidPolicy, m)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return FusionPolicy{}, fmt.Errorf("%w: weight for %s must be a non-negative number, got %v", ErrInvalidPolicy, m, w)
		}
		p.weights[idx] = w
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return FusionPolicy{}, fmt.Errorf("%w: policy %q has no positive weight", ErrInvalidPolicy, name)
	}

	for _, opt := range opts {
		opt(&p)
	}
	return p, nil
}

// MustFusionPolicy is like NewFusionPolicy but panics on error.
// Intended for package-level defaults and tests.
func MustFusionPolicy(name string, weights map[Modality]float64, norm Normalization, opts ...PolicyOption) FusionPolicy {
	p, err := NewFusionPolicy(name, weights, norm, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the policy name.
func (p FusionPolicy) Name() string { return p.name }

// Normalization returns the post-concatenation normalization.
func (p FusionPolicy) Normalization() Normalization { return p.normalization }

// NormalizesModalities reports whether each modality is unit-normalized before weighting.
func (p FusionPolicy) NormalizesModalities() bool { return p.perModality }

// Weight returns the weight of a modality (0 for unknown modalities).
func (p FusionPolicy) Weight(m Modality) float64 {
	idx := m.index()
	if idx < 0 {
		return 0
	}
	return p.weights[idx]
}

// Weights returns a copy of the modality weights.
func (p FusionPolicy) Weights() map[Modality]float64 {
	out := make(map[Modality]float64, len(canonicalOrder))
	for i, m := range canonicalOrder {
		out[m] = p.weights[i]
	}
	return out
}

// Includes reports whether a modality contributes dimensions to fused vectors.
func (p FusionPolicy) Includes(m Modality) bool {
	return p.Weight(m) > 0
}

// FusedDim returns the length of fused vectors produced under this policy.
func (p FusionPolicy) FusedDim(dims Dimensions) int {
	n := 0
	for _, m := range canonicalOrder {
		if p.Includes(m) {
			n += dims.Of(m)
		}
	}
	return n
}

// String returns a compact description for logs.
func (p FusionPolicy) String() string {
	return fmt.Sprintf("%s(audio=%g image=%g text=%g norm=%s)",
		p.name, p.weights[0], p.weights[1], p.weights[2], p.normalization)
}
