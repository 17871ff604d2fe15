// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // register the pure-Go SQLite driver

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/store/vecblob"
	"github.com/tomtom215/cadence/internal/validation"
)

const (
	kindLike = "like"
	kindPlay = "play"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS songs (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		artist           TEXT NOT NULL,
		album            TEXT NOT NULL DEFAULT '',
		genre            TEXT NOT NULL DEFAULT '',
		year             INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		popularity       REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS vectors (
		song_id  TEXT NOT NULL,
		modality TEXT NOT NULL,
		data     BLOB NOT NULL,
		PRIMARY KEY (song_id, modality)
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id TEXT NOT NULL,
		song_id TEXT NOT NULL,
		kind    TEXT NOT NULL,
		total   INTEGER NOT NULL,
		PRIMARY KEY (user_id, song_id, kind)
	)`,
	`CREATE INDEX IF NOT EXISTS interactions_song ON interactions (song_id)`,
}

// Store implements the song store on top of SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and applies the schema.
// With inMemory set, path is ignored and nothing touches disk.
func Open(ctx context.Context, path string, inMemory bool) (*Store, error) {
	dsn := path
	if inMemory {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSong inserts or replaces a song together with all of its vectors.
//
//nolint:gocritic // hugeParam: song passed by value to match the Writer port
func (s *Store) PutSong(ctx context.Context, song recommend.Song, popularity float64) error {
	if err := validation.ValidateID("song id", string(song.ID)); err != nil {
		return err
	}
	if popularity < 0 {
		return fmt.Errorf("song %s: popularity must be non-negative, got %v", song.ID, popularity)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO songs
			(id, title, artist, album, genre, year, duration_seconds, popularity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(song.ID), song.Title, song.Artist, song.Album, song.Genre,
			song.Year, song.DurationSeconds, popularity)
		if err != nil {
			return fmt.Errorf("put song: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE song_id = ?`, string(song.ID)); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
		for m, v := range song.Vectors {
			_, err := tx.ExecContext(ctx, `INSERT INTO vectors (song_id, modality, data) VALUES (?, ?, ?)`,
				string(song.ID), string(m), vecblob.Encode(v))
			if err != nil {
				return fmt.Errorf("put %s vector: %w", m, err)
			}
		}
		return nil
	})
}

// RecordLike records that a user liked a song.
func (s *Store) RecordLike(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(ctx, kindLike, userID, id)
}

// RecordPlay records that a user played a song.
func (s *Store) RecordPlay(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(ctx, kindPlay, userID, id)
}

func (s *Store) record(ctx context.Context, kind, userID string, id recommend.SongID) error {
	if err := validation.ValidateID("user id", userID); err != nil {
		return err
	}
	if err := validation.ValidateID("song id", string(id)); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO interactions (user_id, song_id, kind, total)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, song_id, kind) DO UPDATE SET total = total + 1`,
		userID, string(id), kind)
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

// GetSong returns a song by ID with all of its vectors.
func (s *Store) GetSong(ctx context.Context, id recommend.SongID) (recommend.Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, artist, album, genre, year, duration_seconds
		FROM songs WHERE id = ?`, string(id))

	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recommend.Song{}, fmt.Errorf("song %s: %w", id, recommend.ErrSongNotFound)
	}
	if err != nil {
		return recommend.Song{}, fmt.Errorf("get song: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT song_id, modality, data FROM vectors WHERE song_id = ?`, string(id))
	if err != nil {
		return recommend.Song{}, fmt.Errorf("get vectors: %w", err)
	}
	if err := attachVectors(rows, map[recommend.SongID]*recommend.Song{id: &song}); err != nil {
		return recommend.Song{}, err
	}
	return song, nil
}

// ListCandidates returns songs matching filter ordered by ascending ID.
// Filtering happens in Go so artist and genre matching agree with the
// other stores on non-ASCII case folding.
func (s *Store) ListCandidates(ctx context.Context, filter recommend.CandidateFilter) ([]recommend.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, artist, album, genre, year, duration_seconds
		FROM songs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}

	out := []recommend.Song{}
	for rows.Next() {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		song, err := scanSong(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan song: %w", err)
		}
		if filter.Matches(&song) {
			out = append(out, song)
		}
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	byID := make(map[recommend.SongID]*recommend.Song, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	rows, err = s.db.QueryContext(ctx, `SELECT song_id, modality, data FROM vectors`)
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	if err := attachVectors(rows, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPopularityScore returns base popularity plus the interaction count.
func (s *Store) GetPopularityScore(ctx context.Context, id recommend.SongID) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx, `SELECT s.popularity +
			COALESCE((SELECT SUM(total) FROM interactions i WHERE i.song_id = s.id), 0)
		FROM songs s WHERE s.id = ?`, string(id)).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("song %s: %w", id, recommend.ErrSongNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get popularity: %w", err)
	}
	return score, nil
}

// GetLikedOrPlayedSongIDs returns a user's distinct liked or played songs,
// likes first, each group in ascending ID order.
func (s *Store) GetLikedOrPlayedSongIDs(ctx context.Context, userID string) ([]recommend.SongID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT song_id FROM interactions
		WHERE user_id = ? ORDER BY kind, song_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	out := []recommend.SongID{}
	seen := make(map[recommend.SongID]struct{})
	for rows.Next() {
		var id recommend.SongID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return out, nil
}

// Reset drops all songs and interactions.
func (s *Store) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"interactions", "vectors", "songs"} {
			//nolint:gosec // table names are constants
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Len returns the number of stored songs.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (recommend.Song, error) {
	var (
		song recommend.Song
		id   string
	)
	err := row.Scan(&id, &song.Title, &song.Artist, &song.Album, &song.Genre, &song.Year, &song.DurationSeconds)
	song.ID = recommend.SongID(id)
	return song, err
}

// attachVectors reads (song_id, modality, data) rows into the songs of
// byID, skipping songs not in the map. It closes rows.
func attachVectors(rows *sql.Rows, byID map[recommend.SongID]*recommend.Song) error {
	defer rows.Close()

	for rows.Next() {
		var (
			id       string
			modality string
			data     []byte
		)
		if err := rows.Scan(&id, &modality, &data); err != nil {
			return fmt.Errorf("scan vector: %w", err)
		}
		song, ok := byID[recommend.SongID(id)]
		if !ok {
			continue
		}
		m, err := recommend.ParseModality(modality)
		if err != nil {
			return fmt.Errorf("song %s: %w", id, err)
		}
		vec, err := vecblob.Decode(data)
		if err != nil {
			return fmt.Errorf("song %s %s vector: %w", id, m, err)
		}
		if song.Vectors == nil {
			song.Vectors = make(recommend.ModalityVectors)
		}
		song.Vectors[m] = vec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read vectors: %w", err)
	}
	return nil
}

// Interface compliance.
var (
	_ recommend.VectorStore   = (*Store)(nil)
	_ recommend.ProfileSource = (*Store)(nil)
	_ catalog.Resetter        = (*Store)(nil)
)
