// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// StoreConfig selects and locates the song store.
type StoreConfig struct {
	// Backend is "badger" (persistent, default), "sqlite" or "memory".
	Backend string `koanf:"backend" validate:"oneof=badger sqlite memory"`

	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	// SQLitePath is the SQLite database file.
	SQLitePath string `koanf:"sqlite_path"`

	// InMemory runs BadgerDB or SQLite without touching disk.
	InMemory bool `koanf:"in_memory"`
}

// CatalogConfig controls catalog seeding and the watch loop.
type CatalogConfig struct {
	// SeedPath is imported at startup when set. Required by the memory backend
	// for anything beyond an empty catalog.
	SeedPath string `koanf:"seed_path"`

	// SyncInterval is how often the watch command checks the catalog file.
	SyncInterval time.Duration `koanf:"sync_interval" validate:"gt=0"`

	// Notify makes the watch command react to file events between ticks.
	Notify bool `koanf:"notify"`
}

// RecommendConfig mirrors recommend.Config with koanf keys.
type RecommendConfig struct {
	Dimensions DimensionsConfig `koanf:"dimensions"`
	Policies   PoliciesConfig   `koanf:"policies"`

	MaxCandidates int     `koanf:"max_candidates" validate:"gte=1"`
	DefaultK      int     `koanf:"default_k" validate:"gte=1"`
	MaxK          int     `koanf:"max_k" validate:"gte=1"`
	MinScore      float64 `koanf:"min_score" validate:"gte=-1,lte=1"`

	ParallelThreshold int `koanf:"parallel_threshold" validate:"gte=0"`
	ParallelWorkers   int `koanf:"parallel_workers" validate:"gte=0"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries" validate:"gte=0"`

	// MMRLambda below 1 registers the MMR diversity reranker.
	MMRLambda float64 `koanf:"mmr_lambda" validate:"gte=0,lte=1"`
	Overfetch int     `koanf:"overfetch" validate:"gte=1"`
}

// DimensionsConfig holds per-modality vector lengths.
type DimensionsConfig struct {
	Audio int `koanf:"audio" validate:"gte=1"`
	Image int `koanf:"image" validate:"gte=1"`
	Text  int `koanf:"text" validate:"gte=1"`
}

// PolicyConfig is one fusion policy.
type PolicyConfig struct {
	Audio               float64 `koanf:"audio" validate:"gte=0"`
	Image               float64 `koanf:"image" validate:"gte=0"`
	Text                float64 `koanf:"text" validate:"gte=0"`
	Normalization       string  `koanf:"normalization" validate:"oneof=l2 none"`
	NormalizeModalities bool    `koanf:"normalize_modalities"`
}

// PoliciesConfig holds one policy per similarity mode.
type PoliciesConfig struct {
	BySong  PolicyConfig `koanf:"by_song"`
	ByMood  PolicyConfig `koanf:"by_mood"`
	ByImage PolicyConfig `koanf:"by_image"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Dump prints the Prometheus registry to stderr when a command exits.
	Dump bool `koanf:"dump"`
}

// Validate checks struct tags and cross-field rules, then the engine config.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Store.Backend == BackendBadger && !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the badger backend unless store.in_memory is set")
	}
	if c.Store.Backend == BackendSQLite && !c.Store.InMemory && c.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required for the sqlite backend unless store.in_memory is set")
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k must be >= recommend.default_k, got %d < %d",
			c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

// EngineConfig converts the recommend section into a recommend.Config.
func (c *Config) EngineConfig() *recommend.Config {
	r := &c.Recommend
	return &recommend.Config{
		Dimensions: recommend.Dimensions{
			Audio: r.Dimensions.Audio,
			Image: r.Dimensions.Image,
			Text:  r.Dimensions.Text,
		},
		Policies: recommend.PoliciesConfig{
			BySong:  r.Policies.BySong.engine(),
			ByMood:  r.Policies.ByMood.engine(),
			ByImage: r.Policies.ByImage.engine(),
		},
		Limits: recommend.LimitsConfig{
			MaxCandidates: r.MaxCandidates,
			DefaultK:      r.DefaultK,
			MaxK:          r.MaxK,
			MinScore:      r.MinScore,
		},
		Parallel: recommend.ParallelConfig{
			Threshold: r.ParallelThreshold,
			Workers:   r.ParallelWorkers,
		},
		Cache: recommend.CacheConfig{
			Enabled:    r.CacheEnabled,
			TTL:        r.CacheTTL,
			MaxEntries: r.CacheMaxEntries,
		},
		Diversity: recommend.DiversityConfig{
			MMRLambda: r.MMRLambda,
			Overfetch: r.Overfetch,
		},
	}
}

// LoggerConfig converts the logging section for logging.Init.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}

func (p PolicyConfig) engine() recommend.PolicyConfig {
	return recommend.PolicyConfig{
		Audio:               p.Audio,
		Image:               p.Image,
		Text:                p.Text,
		Normalization:       p.Normalization,
		NormalizeModalities: p.NormalizeModalities,
	}
}

func policyFromEngine(p recommend.PolicyConfig) PolicyConfig {
	return PolicyConfig{
		Audio:               p.Audio,
		Image:               p.Image,
		Text:                p.Text,
		Normalization:       p.Normalization,
		NormalizeModalities: p.NormalizeModalities,
	}
}
