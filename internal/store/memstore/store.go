// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package memstore is a map-backed song store for tests and one-shot CLI runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// Store keeps songs and interactions in memory. It is safe for concurrent use.
// Songs are copied on the way in and out, so callers never share vectors
// with the store.
type Store struct {
	mu sync.RWMutex

	songs map[recommend.SongID]recommend.Song
	base  map[recommend.SongID]float64
	// interactions counts likes plus plays per song
	interactions map[recommend.SongID]int

	// history keeps each user's liked or played songs in first-seen order
	history map[string][]recommend.SongID
	seen    map[string]map[recommend.SongID]struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		songs:        make(map[recommend.SongID]recommend.Song),
		base:         make(map[recommend.SongID]float64),
		interactions: make(map[recommend.SongID]int),
		history:      make(map[string][]recommend.SongID),
		seen:         make(map[string]map[recommend.SongID]struct{}),
	}
}

// PutSong inserts or replaces a song.
//
//nolint:gocritic // hugeParam: song passed by value to match the Writer port
func (s *Store) PutSong(ctx context.Context, song recommend.Song, popularity float64) error {
	if err := validation.ValidateID("song id", string(song.ID)); err != nil {
		return err
	}
	if popularity < 0 {
		return fmt.Errorf("song %s: popularity must be non-negative, got %v", song.ID, popularity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs[song.ID] = cloneSong(song)
	s.base[song.ID] = popularity
	return nil
}

// RecordLike records that a user liked a song.
func (s *Store) RecordLike(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(userID, id)
}

// RecordPlay records that a user played a song.
func (s *Store) RecordPlay(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(userID, id)
}

// record counts an interaction. The song need not exist; history may outlive
// catalog entries.
func (s *Store) record(userID string, id recommend.SongID) error {
	if err := validation.ValidateID("user id", userID); err != nil {
		return err
	}
	if err := validation.ValidateID("song id", string(id)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions[id]++
	seen, ok := s.seen[userID]
	if !ok {
		seen = make(map[recommend.SongID]struct{})
		s.seen[userID] = seen
	}
	if _, dup := seen[id]; !dup {
		seen[id] = struct{}{}
		s.history[userID] = append(s.history[userID], id)
	}
	return nil
}

// GetSong returns a song by ID.
func (s *Store) GetSong(ctx context.Context, id recommend.SongID) (recommend.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return recommend.Song{}, fmt.Errorf("song %s: %w", id, recommend.ErrSongNotFound)
	}
	return cloneSong(song), nil
}

// ListCandidates returns songs matching filter ordered by ascending ID.
func (s *Store) ListCandidates(ctx context.Context, filter recommend.CandidateFilter) ([]recommend.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]recommend.SongID, 0, len(s.songs))
	for id := range s.songs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]recommend.Song, 0, len(ids))
	for _, id := range ids {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		song := s.songs[id]
		if !filter.Matches(&song) {
			continue
		}
		out = append(out, cloneSong(song))
	}
	return out, nil
}

// GetPopularityScore returns base popularity plus the interaction count.
func (s *Store) GetPopularityScore(ctx context.Context, id recommend.SongID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.songs[id]; !ok {
		return 0, fmt.Errorf("song %s: %w", id, recommend.ErrSongNotFound)
	}
	return s.base[id] + float64(s.interactions[id]), nil
}

// GetLikedOrPlayedSongIDs returns a user's distinct liked or played songs.
func (s *Store) GetLikedOrPlayedSongIDs(ctx context.Context, userID string) ([]recommend.SongID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.history[userID]
	out := make([]recommend.SongID, len(h))
	copy(out, h)
	return out, nil
}

// Reset drops all songs and interactions.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs = make(map[recommend.SongID]recommend.Song)
	s.base = make(map[recommend.SongID]float64)
	s.interactions = make(map[recommend.SongID]int)
	s.history = make(map[string][]recommend.SongID)
	s.seen = make(map[string]map[recommend.SongID]struct{})
	return nil
}

// Len returns the number of songs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

//nolint:gocritic // hugeParam: copy semantics are the point
func cloneSong(song recommend.Song) recommend.Song {
	if song.Vectors != nil {
		vectors := make(recommend.ModalityVectors, len(song.Vectors))
		for m, v := range song.Vectors {
			vectors[m] = append(recommend.ModalityVector(nil), v...)
		}
		song.Vectors = vectors
	}
	return song
}

// Interface compliance.
var (
	_ recommend.VectorStore   = (*Store)(nil)
	_ recommend.ProfileSource = (*Store)(nil)
	_ catalog.Resetter        = (*Store)(nil)
)
