// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package metrics provides Prometheus instrumentation for Cadence.
//
// All collectors are registered with the default registry via promauto at
// package init. Callers use the Record* helpers rather than touching the
// collectors directly:
//
//	start := time.Now()
//	resp, err := engine.Recommend(ctx, req)
//	metrics.RecordRecommendation("by_mood", time.Since(start), resp.TotalCandidates, resp.Skipped, "")
//
// There is no HTTP exposition endpoint; WriteText dumps the registry in the
// Prometheus text format, which the command line uses for --metrics-dump.
package metrics
