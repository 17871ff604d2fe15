// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/cadence/internal/recommend"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"cadence.yaml",
	"cadence.yml",
	"/etc/cadence/config.yaml",
	"/etc/cadence/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CADENCE_CONFIG"

// envPrefix is the prefix of every environment variable Cadence reads.
const envPrefix = "CADENCE_"

// defaultConfig returns the built-in defaults. The recommend section starts
// from recommend.DefaultConfig so the two never drift apart.
func defaultConfig() *Config {
	eng := recommend.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Backend:    BackendBadger,
			Path:       "./cadence-data",
			SQLitePath: "./cadence.db",
		},
		Catalog: CatalogConfig{
			SyncInterval: 30 * time.Second,
			Notify:       true,
		},
		Recommend: RecommendConfig{
			Dimensions: DimensionsConfig{
				Audio: eng.Dimensions.Audio,
				Image: eng.Dimensions.Image,
				Text:  eng.Dimensions.Text,
			},
			Policies: PoliciesConfig{
				BySong:  policyFromEngine(eng.Policies.BySong),
				ByMood:  policyFromEngine(eng.Policies.ByMood),
				ByImage: policyFromEngine(eng.Policies.ByImage),
			},
			MaxCandidates:     eng.Limits.MaxCandidates,
			DefaultK:          eng.Limits.DefaultK,
			MaxK:              eng.Limits.MaxK,
			MinScore:          eng.Limits.MinScore,
			ParallelThreshold: eng.Parallel.Threshold,
			ParallelWorkers:   eng.Parallel.Workers,
			CacheEnabled:      eng.Cache.Enabled,
			CacheTTL:          eng.Cache.TTL,
			CacheMaxEntries:   eng.Cache.MaxEntries,
			MMRLambda:         eng.Diversity.MMRLambda,
			Overfetch:         eng.Diversity.Overfetch,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later ones winning:
//  1. Built-in defaults
//  2. YAML config file: path if non-empty, else CADENCE_CONFIG, else the
//     first of DefaultConfigPaths that exists
//  3. CADENCE_* environment variables
//
// An explicit path that does not exist is an error; a missing default file
// is not.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile resolves the config file path. It returns "" when no file
// should be loaded.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s: %w", ConfigPathEnvVar, err)
		}
		return envPath, nil
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Store
	"cadence_store_backend":   "store.backend",
	"cadence_store_path":      "store.path",
	"cadence_store_sqlite":    "store.sqlite_path",
	"cadence_store_in_memory": "store.in_memory",

	// Catalog
	"cadence_catalog_seed":          "catalog.seed_path",
	"cadence_catalog_sync_interval": "catalog.sync_interval",
	"cadence_catalog_notify":        "catalog.notify",

	// Recommend
	"cadence_dim_audio":                    "recommend.dimensions.audio",
	"cadence_dim_image":                    "recommend.dimensions.image",
	"cadence_dim_text":                     "recommend.dimensions.text",
	"cadence_recommend_max_candidates":     "recommend.max_candidates",
	"cadence_recommend_default_k":          "recommend.default_k",
	"cadence_recommend_max_k":              "recommend.max_k",
	"cadence_recommend_min_score":          "recommend.min_score",
	"cadence_recommend_parallel_threshold": "recommend.parallel_threshold",
	"cadence_recommend_parallel_workers":   "recommend.parallel_workers",
	"cadence_recommend_cache_enabled":      "recommend.cache_enabled",
	"cadence_recommend_cache_ttl":          "recommend.cache_ttl",
	"cadence_recommend_cache_max_entries":  "recommend.cache_max_entries",
	"cadence_recommend_mmr_lambda":         "recommend.mmr_lambda",
	"cadence_recommend_overfetch":          "recommend.overfetch",

	// Logging
	"cadence_log_level":  "logging.level",
	"cadence_log_format": "logging.format",
	"cadence_log_caller": "logging.caller",

	// Metrics
	"cadence_metrics_dump": "metrics.dump",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped, so stray CADENCE_* names
// never leak into the config tree.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
