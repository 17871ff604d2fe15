// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package config loads Cadence configuration with koanf.

# Configuration Sources

Sources are layered, later ones winning:

 1. Built-in defaults (recommend section from recommend.DefaultConfig)
 2. YAML file: --config flag, else CADENCE_CONFIG, else cadence.yaml,
    cadence.yml, /etc/cadence/config.yaml, /etc/cadence/config.yml
 3. Environment variables

# Example File

	store:
	  backend: badger
	  path: /var/lib/cadence
	catalog:
	  seed_path: catalog.yaml
	  sync_interval: 1m
	  notify: true
	recommend:
	  dimensions: {audio: 128, image: 512, text: 384}
	  default_k: 10
	  mmr_lambda: 0.7
	  policies:
	    by_mood: {audio: 1, image: 0, text: 0.5, normalization: l2}
	logging:
	  level: debug
	  format: console

# Environment Variables

Store:
  - CADENCE_STORE_BACKEND: badger, sqlite or memory (default: badger)
  - CADENCE_STORE_PATH: BadgerDB directory (default: ./cadence-data)
  - CADENCE_STORE_SQLITE: SQLite file (default: ./cadence.db)
  - CADENCE_STORE_IN_MEMORY: run BadgerDB or SQLite in memory (default: false)

Catalog:
  - CADENCE_CATALOG_SEED: catalog imported at startup
  - CADENCE_CATALOG_SYNC_INTERVAL: watch poll interval (default: 30s)
  - CADENCE_CATALOG_NOTIFY: watch reacts to file events (default: true)

Recommend:
  - CADENCE_DIM_AUDIO, CADENCE_DIM_IMAGE, CADENCE_DIM_TEXT: vector lengths
  - CADENCE_RECOMMEND_DEFAULT_K, CADENCE_RECOMMEND_MAX_K
  - CADENCE_RECOMMEND_MAX_CANDIDATES, CADENCE_RECOMMEND_MIN_SCORE
  - CADENCE_RECOMMEND_PARALLEL_THRESHOLD, CADENCE_RECOMMEND_PARALLEL_WORKERS
  - CADENCE_RECOMMEND_CACHE_ENABLED, CADENCE_RECOMMEND_CACHE_TTL,
    CADENCE_RECOMMEND_CACHE_MAX_ENTRIES
  - CADENCE_RECOMMEND_MMR_LAMBDA, CADENCE_RECOMMEND_OVERFETCH

Logging:
  - CADENCE_LOG_LEVEL: trace, debug, info, warn, error, disabled
  - CADENCE_LOG_FORMAT: json or console
  - CADENCE_LOG_CALLER: include caller (default: false)

Metrics:
  - CADENCE_METRICS_DUMP: print metrics when a command exits

Fusion policies are file-only; they have no environment variables.

# Validation

Struct tags are checked with go-playground/validator through the validation
package, then cross-field rules, then recommend.Config.Validate.
*/
package config
