// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Sync outcomes, also used as the metrics result label.
const (
	SyncImported  = "imported"
	SyncUnchanged = "unchanged"
	SyncFailed    = "failed"
)

// CacheClearer drops derived state after the catalog changes.
// *recommend.Engine satisfies it.
type CacheClearer interface {
	ClearCache()
}

// CatalogSyncConfig holds configuration for the catalog sync service.
type CatalogSyncConfig struct {
	// Path is the catalog YAML file.
	Path string

	// Interval is how often the file is checked.
	// Default: 30s
	Interval time.Duration

	// Dimensions, when non-zero, are checked against every catalog vector
	// before the store is touched.
	Dimensions recommend.Dimensions

	// Notify also syncs on file system events for the catalog, so edits are
	// picked up before the next tick. The ticker keeps running either way.
	Notify bool

	// Debounce batches bursts of file events into one sync.
	// Default: 500ms
	Debounce time.Duration
}

// fileState identifies one version of the catalog file.
type fileState struct {
	modTime time.Time
	size    int64
}

// CatalogSyncService re-imports a catalog file whenever it changes.
//
// Each run stats the file. When modification time or size differs from the
// last successful import, the catalog is loaded, validated and written with
// catalog.Replace, then the engine cache is cleared. Failed runs are logged
// and retried on the next tick; they never stop the service.
type CatalogSyncService struct {
	config CatalogSyncConfig
	store  catalog.Resetter
	cache  CacheClearer
	logger zerolog.Logger
	name   string

	mu   sync.Mutex
	last fileState
	runs map[string]int
}

// NewCatalogSyncService creates a catalog sync service. cache may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCatalogSyncService(cfg CatalogSyncConfig, store catalog.Resetter, cache CacheClearer, logger zerolog.Logger) *CatalogSyncService {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &CatalogSyncService{
		config: cfg,
		store:  store,
		cache:  cache,
		logger: logger.With().Str("service", "catalog-sync").Str("path", cfg.Path).Logger(),
		name:   "catalog-sync-service",
		runs:   make(map[string]int),
	}
}

// Serve implements suture.Service. It syncs once immediately, then on
// every tick and, with Notify, after file events until ctx is canceled.
func (s *CatalogSyncService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("notify", s.config.Notify).
		Msg("catalog sync service starting")

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if s.config.Notify {
		watcher, err := s.newWatcher()
		if err != nil {
			s.logger.Warn().Err(err).Msg("file notifications unavailable, polling only")
		} else {
			defer watcher.Close()
			events, errs = watcher.Events, watcher.Errors
		}
	}

	s.SyncNow(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	debounce := time.NewTimer(s.config.Debounce)
	debounce.Stop()
	defer debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("catalog sync service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.SyncNow(ctx)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !s.isCatalogChange(event) || pending {
				continue
			}
			debounce.Reset(s.config.Debounce)
			pending = true
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn().Err(err).Msg("file watch error")
		case <-debounce.C:
			pending = false
			s.SyncNow(ctx)
		}
	}
}

// newWatcher watches the catalog's directory. Editors often save by
// renaming a temporary file over the original, which a watch on the file
// itself would miss.
func (s *CatalogSyncService) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.config.Path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(s.config.Path), err)
	}
	return watcher, nil
}

func (s *CatalogSyncService) isCatalogChange(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(s.config.Path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// SyncNow runs one sync and returns its outcome.
func (s *CatalogSyncService) SyncNow(ctx context.Context) string {
	result, err := s.sync(ctx)
	if err != nil {
		result = SyncFailed
		s.logger.Warn().Err(err).Msg("catalog sync failed")
	}

	s.mu.Lock()
	s.runs[result]++
	s.mu.Unlock()

	metrics.RecordCatalogSync(result)
	return result
}

func (s *CatalogSyncService) sync(ctx context.Context) (string, error) {
	info, err := os.Stat(s.config.Path)
	if err != nil {
		return "", fmt.Errorf("stat catalog: %w", err)
	}
	state := fileState{modTime: info.ModTime(), size: info.Size()}

	s.mu.Lock()
	unchanged := state == s.last
	s.mu.Unlock()
	if unchanged {
		s.logger.Debug().Msg("catalog unchanged")
		return SyncUnchanged, nil
	}

	c, err := catalog.Load(s.config.Path)
	if err != nil {
		return "", err
	}
	if s.config.Dimensions != (recommend.Dimensions{}) {
		if err := c.CheckDimensions(s.config.Dimensions); err != nil {
			return "", fmt.Errorf("catalog does not match configured dimensions: %w", err)
		}
	}

	if _, err := catalog.Replace(ctx, c, s.store, s.logger); err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.ClearCache()
	}

	s.mu.Lock()
	s.last = state
	s.mu.Unlock()
	return SyncImported, nil
}

// Runs returns how many syncs ended with result.
func (s *CatalogSyncService) Runs(result string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[result]
}

// String returns the service name for logging.
func (s *CatalogSyncService) String() string {
	return s.name
}
