// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package storetest holds the behavioral tests every song store must pass.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Store is the full surface of a song store.
type Store interface {
	recommend.VectorStore
	recommend.ProfileSource
	catalog.Resetter
}

// Factory returns a fresh, empty store. Cleanup is the factory's concern.
type Factory func(t *testing.T) Store

// Song builds a test song. Vectors use exactly representable float32 values
// so stores with reduced precision round-trip them unchanged.
func Song(id, artist, genre string, audio ...float64) recommend.Song {
	s := recommend.Song{
		ID:     recommend.SongID(id),
		Title:  "Title " + id,
		Artist: artist,
		Genre:  genre,
		Year:   1999,
	}
	if len(audio) > 0 {
		s.Vectors = recommend.ModalityVectors{
			recommend.ModalityAudio: audio,
			recommend.ModalityText:  {0.5, -0.25},
		}
	}
	return s
}

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) { testPutAndGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, newStore(t)) })
	t.Run("ListOrderedByID", func(t *testing.T) { testListOrdered(t, newStore(t)) })
	t.Run("ListFilters", func(t *testing.T) { testListFilters(t, newStore(t)) })
	t.Run("Popularity", func(t *testing.T) { testPopularity(t, newStore(t)) })
	t.Run("History", func(t *testing.T) { testHistory(t, newStore(t)) })
	t.Run("InvalidIDs", func(t *testing.T) { testInvalidIDs(t, newStore(t)) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, newStore(t)) })
}

func put(t *testing.T, s Store, song recommend.Song, pop float64) {
	t.Helper()
	if err := s.PutSong(context.Background(), song, pop); err != nil {
		t.Fatalf("PutSong(%s) error = %v", song.ID, err)
	}
}

func testPutAndGet(t *testing.T, s Store) {
	want := Song("s1", "Miles Davis", "jazz", 1, 0.5, -2)
	want.Album = "Kind of Blue"
	want.DurationSeconds = 337
	put(t, s, want, 3)

	got, err := s.GetSong(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSong() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetSong() = %+v, want %+v", got, want)
	}
	if _, ok := got.Vectors[recommend.ModalityImage]; ok {
		t.Error("absent modality returned")
	}
}

func testGetMissing(t *testing.T, s Store) {
	_, err := s.GetSong(context.Background(), "nope")
	if !errors.Is(err, recommend.ErrSongNotFound) {
		t.Errorf("GetSong() error = %v, want ErrSongNotFound", err)
	}
	_, err = s.GetPopularityScore(context.Background(), "nope")
	if !errors.Is(err, recommend.ErrSongNotFound) {
		t.Errorf("GetPopularityScore() error = %v, want ErrSongNotFound", err)
	}
}

func testPutReplaces(t *testing.T, s Store) {
	put(t, s, Song("s1", "A", "rock", 1, 0), 1)
	put(t, s, recommend.Song{ID: "s1", Title: "New", Artist: "B",
		Vectors: recommend.ModalityVectors{recommend.ModalityImage: {0.25}}}, 2)

	got, err := s.GetSong(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSong() error = %v", err)
	}
	if got.Title != "New" || got.Artist != "B" {
		t.Errorf("metadata not replaced: %+v", got)
	}
	if len(got.Vectors) != 1 || got.Vectors[recommend.ModalityImage][0] != 0.25 {
		t.Errorf("vectors not replaced: %v", got.Vectors)
	}
	if pop, _ := s.GetPopularityScore(context.Background(), "s1"); pop != 2 {
		t.Errorf("popularity = %v, want 2", pop)
	}
}

func testListOrdered(t *testing.T, s Store) {
	for _, id := range []string{"c", "a", "d", "b"} {
		put(t, s, Song(id, "x", "", 1), 0)
	}

	songs, err := s.ListCandidates(context.Background(), recommend.CandidateFilter{})
	if err != nil {
		t.Fatalf("ListCandidates() error = %v", err)
	}
	var ids []recommend.SongID
	for _, song := range songs {
		ids = append(ids, song.ID)
		if len(song.Vectors[recommend.ModalityAudio]) != 1 {
			t.Errorf("song %s listed without vectors", song.ID)
		}
	}
	if want := []recommend.SongID{"a", "b", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func testListFilters(t *testing.T, s Store) {
	put(t, s, Song("a", "Miles Davis", "jazz", 1), 0)
	put(t, s, Song("b", "Nina Simone", "jazz", 1), 0)
	put(t, s, Song("c", "miles davis", "fusion", 1), 0)
	put(t, s, Song("d", "Nina Simone", "soul", 1), 0)

	tests := []struct {
		name   string
		filter recommend.CandidateFilter
		want   []recommend.SongID
	}{
		{"artist case-insensitive", recommend.CandidateFilter{Artist: "MILES DAVIS"}, []recommend.SongID{"a", "c"}},
		{"genre", recommend.CandidateFilter{Genre: "Jazz"}, []recommend.SongID{"a", "b"}},
		{"artist and genre", recommend.CandidateFilter{Artist: "nina simone", Genre: "soul"}, []recommend.SongID{"d"}},
		{"limit", recommend.CandidateFilter{Limit: 3}, []recommend.SongID{"a", "b", "c"}},
		{"limit after filter", recommend.CandidateFilter{Genre: "jazz", Limit: 1}, []recommend.SongID{"a"}},
		{"no match", recommend.CandidateFilter{Genre: "metal"}, []recommend.SongID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := s.ListCandidates(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListCandidates() error = %v", err)
			}
			ids := make([]recommend.SongID, 0, len(songs))
			for _, song := range songs {
				ids = append(ids, song.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func testPopularity(t *testing.T, s Store) {
	ctx := context.Background()
	put(t, s, Song("a", "x", "", 1), 10)
	put(t, s, Song("b", "x", "", 1), 0)

	for _, err := range []error{
		s.RecordLike(ctx, "u1", "a"),
		s.RecordPlay(ctx, "u1", "a"),
		s.RecordPlay(ctx, "u2", "a"),
		s.RecordPlay(ctx, "u2", "b"),
	} {
		if err != nil {
			t.Fatalf("record error = %v", err)
		}
	}

	if pop, err := s.GetPopularityScore(ctx, "a"); err != nil || pop != 13 {
		t.Errorf("popularity(a) = %v, %v; want 13", pop, err)
	}
	if pop, err := s.GetPopularityScore(ctx, "b"); err != nil || pop != 1 {
		t.Errorf("popularity(b) = %v, %v; want 1", pop, err)
	}

	if err := s.PutSong(ctx, Song("c", "x", "", 1), -1); err == nil {
		t.Error("negative popularity accepted")
	}
}

func testHistory(t *testing.T, s Store) {
	ctx := context.Background()
	put(t, s, Song("a", "x", "", 1), 0)
	put(t, s, Song("b", "x", "", 1), 0)

	if ids, err := s.GetLikedOrPlayedSongIDs(ctx, "alice"); err != nil || len(ids) != 0 {
		t.Fatalf("empty history = %v, %v", ids, err)
	}

	for _, err := range []error{
		s.RecordLike(ctx, "alice", "b"),
		s.RecordPlay(ctx, "alice", "b"),
		s.RecordPlay(ctx, "alice", "a"),
		s.RecordLike(ctx, "alice", "gone"),
		s.RecordLike(ctx, "bob", "a"),
	} {
		if err != nil {
			t.Fatalf("record error = %v", err)
		}
	}

	ids, err := s.GetLikedOrPlayedSongIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLikedOrPlayedSongIDs() error = %v", err)
	}
	got := make(map[recommend.SongID]int)
	for _, id := range ids {
		got[id]++
	}
	want := map[recommend.SongID]int{"a": 1, "b": 1, "gone": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("history = %v, want each of a, b, gone once", ids)
	}
}

func testInvalidIDs(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.PutSong(ctx, Song("", "x", "", 1), 0); err == nil {
		t.Error("empty song id accepted")
	}
	if err := s.PutSong(ctx, Song("a:b", "x", "", 1), 0); err == nil {
		t.Error("song id with ':' accepted")
	}
	if err := s.RecordLike(ctx, "u:1", "a"); err == nil {
		t.Error("user id with ':' accepted")
	}
	if err := s.RecordPlay(ctx, "", "a"); err == nil {
		t.Error("empty user id accepted")
	}
}

func testIsolation(t *testing.T, s Store) {
	ctx := context.Background()
	song := Song("a", "x", "", 1, 2)
	put(t, s, song, 0)
	song.Vectors[recommend.ModalityAudio][0] = 99

	got, err := s.GetSong(ctx, "a")
	if err != nil {
		t.Fatalf("GetSong() error = %v", err)
	}
	if got.Vectors[recommend.ModalityAudio][0] != 1 {
		t.Error("store shares vectors with the caller of PutSong")
	}

	got.Vectors[recommend.ModalityAudio][0] = 42
	again, _ := s.GetSong(ctx, "a")
	if again.Vectors[recommend.ModalityAudio][0] != 1 {
		t.Error("store shares vectors with the caller of GetSong")
	}
}

func testReset(t *testing.T, s Store) {
	ctx := context.Background()
	put(t, s, Song("a", "x", "", 1), 5)
	if err := s.RecordPlay(ctx, "u", "a"); err != nil {
		t.Fatalf("RecordPlay() error = %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if songs, _ := s.ListCandidates(ctx, recommend.CandidateFilter{}); len(songs) != 0 {
		t.Errorf("songs after Reset = %d, want 0", len(songs))
	}
	if ids, _ := s.GetLikedOrPlayedSongIDs(ctx, "u"); len(ids) != 0 {
		t.Errorf("history after Reset = %v, want empty", ids)
	}

	put(t, s, Song("a", "x", "", 1), 5)
	if pop, _ := s.GetPopularityScore(ctx, "a"); pop != 5 {
		t.Errorf("popularity after Reset = %v, want 5", pop)
	}
}

func testConcurrent(t *testing.T, s Store) {
	ctx := context.Background()
	put(t, s, Song("a", "x", "", 1), 0)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- s.RecordPlay(ctx, "u", "a")
			errs <- s.RecordLike(ctx, "v", "a")
		}()
		go func() {
			defer wg.Done()
			_, err := s.ListCandidates(ctx, recommend.CandidateFilter{})
			errs <- err
			_, err = s.GetPopularityScore(ctx, "a")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent operation error = %v", err)
		}
	}
	if pop, _ := s.GetPopularityScore(ctx, "a"); pop != 20 {
		t.Errorf("popularity = %v, want 20", pop)
	}
}
