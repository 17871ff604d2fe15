// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package services provides suture.Service implementations for Cadence.
//
// CatalogSyncService polls a catalog file and replaces the store contents
// whenever the file changes. With Notify set it also reacts to fsnotify
// events on the file, debounced, so an edit is imported within moments
// instead of at the next tick. Each run is counted in
// cadence_catalog_sync_runs_total{result} with result imported, unchanged
// or failed.
package services
