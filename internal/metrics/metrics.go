// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Prometheus instrumentation for:
// - Recommendation requests per mode (latency, errors, skipped candidates)
// - Fused-vector cache efficiency
// - Catalog imports and background catalog sync

var (
	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"mode"},
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_recommend_errors_total",
			Help: "Total number of failed recommendation requests",
		},
		[]string{"mode", "error_type"}, // error_type from recommend.ErrorKind
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)

	RecommendCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_recommend_candidates",
			Help:    "Number of candidates considered per recommendation request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1 .. 65536
		},
		[]string{"mode"},
	)

	RecommendSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_recommend_skipped_total",
			Help: "Total number of candidates skipped for degenerate vectors or missing history songs",
		},
		[]string{"mode"},
	)

	// Fused-vector Cache Metrics
	FusionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_fusion_cache_hits_total",
			Help: "Total number of fused-vector cache hits",
		},
	)

	FusionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_fusion_cache_misses_total",
			Help: "Total number of fused-vector cache misses",
		},
	)

	// Catalog Metrics
	CatalogImportedSongs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_catalog_imported_songs_total",
			Help: "Total number of songs written by catalog imports",
		},
	)

	CatalogImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_catalog_import_duration_seconds",
			Help:    "Duration of catalog imports in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogImportErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_catalog_import_errors_total",
			Help: "Total number of failed catalog imports",
		},
	)

	CatalogSyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_catalog_sync_runs_total",
			Help: "Total number of background catalog sync checks",
		},
		[]string{"result"}, // "imported", "unchanged", "failed"
	)
)

// RecordRecommendation records one recommendation request.
// errorType is empty on success.
func RecordRecommendation(mode string, duration time.Duration, candidates, skipped int, errorType string) {
	RecommendRequests.WithLabelValues(mode).Inc()
	RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if errorType != "" {
		RecommendErrors.WithLabelValues(mode, errorType).Inc()
		return
	}
	RecommendCandidates.WithLabelValues(mode).Observe(float64(candidates))
	if skipped > 0 {
		RecommendSkipped.WithLabelValues(mode).Add(float64(skipped))
	}
}

// RecordFusionCache records fused-vector cache lookups for one request.
func RecordFusionCache(hits, misses int) {
	if hits > 0 {
		FusionCacheHits.Add(float64(hits))
	}
	if misses > 0 {
		FusionCacheMisses.Add(float64(misses))
	}
}

// RecordCatalogImport records a catalog import.
func RecordCatalogImport(songs int, duration time.Duration, err error) {
	CatalogImportDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogImportErrors.Inc()
		return
	}
	CatalogImportedSongs.Add(float64(songs))
}

// RecordCatalogSync records the outcome of a background catalog sync check.
func RecordCatalogSync(result string) {
	CatalogSyncRuns.WithLabelValues(result).Inc()
}

// WriteText writes every metric in g to w in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
