// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"time"
)

// Policy names used by the engine.
const (
	PolicyBySong  = "by_song"
	PolicyByMood  = "by_mood"
	PolicyByImage = "by_image"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Dimensions records the vector length of each modality.
	Dimensions Dimensions `json:"dimensions"`

	// Policies defines the fusion policy of each similarity mode.
	Policies PoliciesConfig `json:"policies"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Parallel controls parallel ranking of large candidate sets.
	Parallel ParallelConfig `json:"parallel"`

	// Cache contains fused-vector caching parameters.
	Cache CacheConfig `json:"cache"`

	// Diversity contains parameters for diversity reranking.
	Diversity DiversityConfig `json:"diversity"`
}

// PolicyConfig is the configurable form of a FusionPolicy.
type PolicyConfig struct {
	// Audio, Image and Text are the non-negative modality weights.
	Audio float64 `json:"audio"`
	Image float64 `json:"image"`
	Text  float64 `json:"text"`

	// Normalization is "l2" (default) or "none".
	Normalization string `json:"normalization"`

	// NormalizeModalities unit-normalizes each modality before weighting.
	NormalizeModalities bool `json:"normalize_modalities"`
}

// Build converts the configuration into an immutable FusionPolicy.
func (p PolicyConfig) Build(name string) (FusionPolicy, error) {
	norm, err := ParseNormalization(p.Normalization)
	if err != nil {
		return FusionPolicy{}, fmt.Errorf("%w: %s: %v", ErrInvalidPolicy, name, err)
	}
	var opts []PolicyOption
	if p.NormalizeModalities {
		opts = append(opts, WithModalityNormalization())
	}
	return NewFusionPolicy(name, map[Modality]float64{
		ModalityAudio: p.Audio,
		ModalityImage: p.Image,
		ModalityText:  p.Text,
	}, norm, opts...)
}

// PoliciesConfig holds one fusion policy per similarity mode.
type PoliciesConfig struct {
	// BySong is used for seed-song queries, history profiles and their
	// candidates. Default: equal weights, l2.
	BySong PolicyConfig `json:"by_song"`

	// ByMood is used for mood queries. Default: audio 1, text 0.5, image excluded.
	ByMood PolicyConfig `json:"by_mood"`

	// ByImage is used for image queries. Default: image only.
	ByImage PolicyConfig `json:"by_image"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxCandidates is the maximum number of candidates fetched per
	// similarity request, taken in ascending song ID order. Popular requests
	// without an explicit filter limit scan every matching song.
	// Default: 10000.
	MaxCandidates int `json:"max_candidates"`

	// DefaultK is the number of results when a request leaves K at zero.
	// Default: 5.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k"`

	// MinScore drops similarity results scoring below it.
	// Default: -1 (keep everything).
	MinScore float64 `json:"min_score"`
}

// ParallelConfig controls parallel ranking.
type ParallelConfig struct {
	// Threshold is the candidate count at or above which ranking runs in parallel.
	// Zero disables parallel ranking.
	// Default: 2048.
	Threshold int `json:"threshold"`

	// Workers is the number of ranking goroutines. Zero means runtime.NumCPU().
	// Default: 0.
	Workers int `json:"workers"`
}

// CacheConfig contains fused-vector caching parameters.
type CacheConfig struct {
	// Enabled controls whether fused vectors are cached per policy and song.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 10m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached vectors.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DiversityConfig contains parameters for diversity reranking.
type DiversityConfig struct {
	// MMRLambda balances relevance vs. diversity in MMR reranking.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	// Default: 1.0.
	MMRLambda float64 `json:"mmr_lambda"`

	// Overfetch multiplies K when rerankers are registered, giving them a
	// larger pool to choose from.
	// Default: 3.
	Overfetch int `json:"overfetch"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dimensions: DefaultDimensions(),
		Policies: PoliciesConfig{
			BySong:  PolicyConfig{Audio: 1, Image: 1, Text: 1, Normalization: string(NormalizeL2)},
			ByMood:  PolicyConfig{Audio: 1, Image: 0, Text: 0.5, Normalization: string(NormalizeL2)},
			ByImage: PolicyConfig{Audio: 0, Image: 1, Text: 0, Normalization: string(NormalizeL2)},
		},
		Limits: LimitsConfig{
			MaxCandidates: 10000,
			DefaultK:      5,
			MaxK:          100,
			MinScore:      -1,
		},
		Parallel: ParallelConfig{
			Threshold: 2048,
			Workers:   0,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
		Diversity: DiversityConfig{
			MMRLambda: 1.0,
			Overfetch: 3,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if err := c.Dimensions.Validate(); err != nil {
		return err
	}
	if _, err := c.buildPolicies(); err != nil {
		return err
	}
	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.MinScore < -1 || c.Limits.MinScore > 1 {
		return fmt.Errorf("limits.min_score must be in [-1, 1], got %f", c.Limits.MinScore)
	}
	if c.Parallel.Threshold < 0 {
		return fmt.Errorf("parallel.threshold must be non-negative, got %d", c.Parallel.Threshold)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("parallel.workers must be non-negative, got %d", c.Parallel.Workers)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	if c.Diversity.MMRLambda < 0 || c.Diversity.MMRLambda > 1 {
		return fmt.Errorf("diversity.mmr_lambda must be in [0, 1], got %f", c.Diversity.MMRLambda)
	}
	if c.Diversity.Overfetch < 1 {
		return fmt.Errorf("diversity.overfetch must be positive, got %d", c.Diversity.Overfetch)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	return &Config{
		Dimensions: c.Dimensions,
		Policies:   c.Policies,
		Limits:     c.Limits,
		Parallel:   c.Parallel,
		Cache:      c.Cache,
		Diversity:  c.Diversity,
	}
}

// policySet holds the built policy of every similarity mode.
type policySet struct {
	bySong  FusionPolicy
	byMood  FusionPolicy
	byImage FusionPolicy
}

func (c *Config) buildPolicies() (policySet, error) {
	var (
		ps  policySet
		err error
	)
	if ps.bySong, err = c.Policies.BySong.Build(PolicyBySong); err != nil {
		return ps, fmt.Errorf("policies.by_song: %w", err)
	}
	if ps.byMood, err = c.Policies.ByMood.Build(PolicyByMood); err != nil {
		return ps, fmt.Errorf("policies.by_mood: %w", err)
	}
	if ps.byImage, err = c.Policies.ByImage.Build(PolicyByImage); err != nil {
		return ps, fmt.Errorf("policies.by_image: %w", err)
	}
	return ps, nil
}
