// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/store/memstore"
)

const catalogV1 = `
songs:
  - {id: a, title: One, artist: X, popularity: 1, vectors: {audio: [1, 0]}}
users:
  - {id: u, played: [a]}
`

const catalogV2 = `
songs:
  - {id: b, title: Two, artist: Y, vectors: {audio: [0, 1]}}
  - {id: c, title: Three, artist: Y, vectors: {audio: [1, 1]}}
users:
  - {id: u, played: [b]}
`

type countingCache struct {
	clears atomic.Int32
}

func (c *countingCache) ClearCache() { c.clears.Add(1) }

// writeCatalog writes body to path and pins its mtime so change detection
// does not depend on filesystem timestamp resolution.
func writeCatalog(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func songIDs(t *testing.T, s *memstore.Store) []recommend.SongID {
	t.Helper()
	songs, err := s.ListCandidates(context.Background(), recommend.CandidateFilter{})
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	ids := make([]recommend.SongID, len(songs))
	for i := range songs {
		ids[i] = songs[i].ID
	}
	return ids
}

func TestCatalogSyncService_String(t *testing.T) {
	svc := NewCatalogSyncService(CatalogSyncConfig{Path: "x"}, memstore.New(), nil, zerolog.Nop())
	if got := svc.String(); got != "catalog-sync-service" {
		t.Errorf("String() = %q", got)
	}
	if svc.config.Interval != 30*time.Second {
		t.Errorf("default interval = %v, want 30s", svc.config.Interval)
	}
}

func TestCatalogSyncService_SyncNow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeCatalog(t, path, catalogV1, base)

	store := memstore.New()
	cache := &countingCache{}
	svc := NewCatalogSyncService(CatalogSyncConfig{Path: path, Interval: time.Hour}, store, cache, zerolog.Nop())
	ctx := context.Background()

	if got := svc.SyncNow(ctx); got != SyncImported {
		t.Fatalf("first sync = %q, want imported", got)
	}
	if ids := songIDs(t, store); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("songs after first sync = %v", ids)
	}

	if got := svc.SyncNow(ctx); got != SyncUnchanged {
		t.Errorf("second sync = %q, want unchanged", got)
	}

	writeCatalog(t, path, catalogV2, base.Add(time.Minute))
	if got := svc.SyncNow(ctx); got != SyncImported {
		t.Fatalf("sync after change = %q, want imported", got)
	}
	ids := songIDs(t, store)
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "c" {
		t.Errorf("songs after change = %v, want [b c] with a removed", ids)
	}
	// Replace resets interactions, so plays are not double counted.
	hist, _ := store.GetLikedOrPlayedSongIDs(ctx, "u")
	if len(hist) != 1 || hist[0] != "b" {
		t.Errorf("history = %v, want [b]", hist)
	}

	if cache.clears.Load() != 2 {
		t.Errorf("cache clears = %d, want 2", cache.clears.Load())
	}
	if svc.Runs(SyncImported) != 2 || svc.Runs(SyncUnchanged) != 1 {
		t.Errorf("runs imported=%d unchanged=%d", svc.Runs(SyncImported), svc.Runs(SyncUnchanged))
	}
}

func TestCatalogSyncService_Failures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	store := memstore.New()
	svc := NewCatalogSyncService(CatalogSyncConfig{
		Path:       path,
		Interval:   time.Hour,
		Dimensions: recommend.Dimensions{Audio: 2, Image: 4, Text: 4},
	}, store, nil, zerolog.Nop())
	ctx := context.Background()

	if got := svc.SyncNow(ctx); got != SyncFailed {
		t.Errorf("missing file sync = %q, want failed", got)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeCatalog(t, path, "songs: [", base)
	if got := svc.SyncNow(ctx); got != SyncFailed {
		t.Errorf("malformed file sync = %q, want failed", got)
	}

	writeCatalog(t, path, "songs:\n  - {id: a, title: t, artist: x, vectors: {audio: [1, 2, 3]}}\n", base.Add(time.Minute))
	if got := svc.SyncNow(ctx); got != SyncFailed {
		t.Errorf("wrong dimensions sync = %q, want failed", got)
	}
	if store.Len() != 0 {
		t.Errorf("store written despite failures: %d songs", store.Len())
	}

	// A fixed file is picked up on the next run.
	writeCatalog(t, path, catalogV1, base.Add(2*time.Minute))
	if got := svc.SyncNow(ctx); got != SyncImported {
		t.Errorf("fixed file sync = %q, want imported", got)
	}
	if svc.Runs(SyncFailed) != 3 {
		t.Errorf("failed runs = %d, want 3", svc.Runs(SyncFailed))
	}
}

func TestCatalogSyncService_Serve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, catalogV1, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	store := memstore.New()
	svc := NewCatalogSyncService(CatalogSyncConfig{Path: path, Interval: 10 * time.Millisecond}, store, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want context.DeadlineExceeded", err)
	}
	if store.Len() != 1 {
		t.Errorf("songs = %d, want 1", store.Len())
	}
	if svc.Runs(SyncImported) != 1 {
		t.Errorf("imported runs = %d, want exactly 1", svc.Runs(SyncImported))
	}
	if svc.Runs(SyncUnchanged) < 2 {
		t.Errorf("unchanged runs = %d, want several ticks", svc.Runs(SyncUnchanged))
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCatalogSyncService_Notify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeCatalog(t, path, catalogV1, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	store := memstore.New()
	svc := NewCatalogSyncService(CatalogSyncConfig{
		Path:     path,
		Interval: time.Hour,
		Notify:   true,
		Debounce: 20 * time.Millisecond,
	}, store, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitFor(t, "initial import", func() bool { return svc.Runs(SyncImported) == 1 })

	// With an hour-long interval only a file event can trigger this sync.
	writeCatalog(t, path, catalogV2, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	waitFor(t, "import after file change", func() bool {
		got := songIDs(t, store)
		return len(got) == 2 && got[0] == "b"
	})

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if svc.Runs(SyncImported) < 2 {
		t.Errorf("imported runs = %d, want at least 2", svc.Runs(SyncImported))
	}
}

func TestCatalogSyncService_IsCatalogChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	svc := NewCatalogSyncService(CatalogSyncConfig{Path: path}, memstore.New(), nil, zerolog.Nop())

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create by rename over", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}, false},
		{"unclean path", fsnotify.Event{Name: dir + "/./catalog.yaml", Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.isCatalogChange(tt.event); got != tt.want {
				t.Errorf("isCatalogChange(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}
