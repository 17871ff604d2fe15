// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/store/vecblob"
	"github.com/tomtom215/cadence/internal/validation"
)

// Key prefixes for BadgerDB storage
const (
	songKeyPrefix   = "song:"
	vectorKeyPrefix = "vec:"
	likeKeyPrefix   = "like:"
	playKeyPrefix   = "play:"
	popKeyPrefix    = "pop:"
)

// songRecord is the JSON value stored under song:<id>.
type songRecord struct {
	Song       recommend.Song `json:"song"`
	Popularity float64        `json:"popularity"`
}

// Store implements the song store on top of BadgerDB.
type Store struct {
	db      *badger.DB
	ownsDB  bool
	writeMu sync.Mutex
}

// New wraps an open database. The caller keeps ownership of db.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a database at path. With inMemory set, path is
// ignored and nothing touches disk.
func Open(path string, inMemory bool) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &Store{db: db, ownsDB: true}, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// PutSong inserts or replaces a song. Vectors of the previous version that
// the new version lacks are deleted.
//
//nolint:gocritic // hugeParam: song passed by value to match the Writer port
func (s *Store) PutSong(ctx context.Context, song recommend.Song, popularity float64) error {
	if err := validation.ValidateID("song id", string(song.ID)); err != nil {
		return err
	}
	if popularity < 0 {
		return fmt.Errorf("song %s: popularity must be non-negative, got %v", song.ID, popularity)
	}

	rec := songRecord{Song: song, Popularity: popularity}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal song: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(songKey(song.ID), data); err != nil {
			return fmt.Errorf("set song: %w", err)
		}

		stale, err := keysWithPrefix(txn, vectorPrefix(song.ID))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete vector: %w", err)
			}
		}

		for m, v := range song.Vectors {
			if err := txn.Set(vectorKey(song.ID, m), vecblob.Encode(v)); err != nil {
				return fmt.Errorf("set %s vector: %w", m, err)
			}
		}
		return nil
	})
}

// RecordLike records that a user liked a song.
func (s *Store) RecordLike(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(likeKeyPrefix, userID, id)
}

// RecordPlay records that a user played a song.
func (s *Store) RecordPlay(ctx context.Context, userID string, id recommend.SongID) error {
	return s.record(playKeyPrefix, userID, id)
}

func (s *Store) record(prefix, userID string, id recommend.SongID) error {
	if err := validation.ValidateID("user id", userID); err != nil {
		return err
	}
	if err := validation.ValidateID("song id", string(id)); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := increment(txn, []byte(prefix+userID+":"+string(id))); err != nil {
			return err
		}
		return increment(txn, []byte(popKeyPrefix+string(id)))
	})
}

// GetSong returns a song by ID with all of its vectors.
func (s *Store) GetSong(ctx context.Context, id recommend.SongID) (recommend.Song, error) {
	var song recommend.Song
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		song = rec.Song
		return loadVectors(txn, &song)
	})
	if err != nil {
		return recommend.Song{}, err
	}
	return song, nil
}

// ListCandidates returns songs matching filter ordered by ascending ID.
func (s *Store) ListCandidates(ctx context.Context, filter recommend.CandidateFilter) ([]recommend.Song, error) {
	var out []recommend.Song

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(songKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(songKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if filter.Limit > 0 && len(out) >= filter.Limit {
				break
			}

			var rec songRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("unmarshal %s: %w", it.Item().Key(), err)
			}
			if !filter.Matches(&rec.Song) {
				continue
			}
			if err := loadVectors(txn, &rec.Song); err != nil {
				return err
			}
			out = append(out, rec.Song)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []recommend.Song{}
	}
	return out, nil
}

// GetPopularityScore returns base popularity plus the interaction count.
func (s *Store) GetPopularityScore(ctx context.Context, id recommend.SongID) (float64, error) {
	var score float64
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		n, err := counter(txn, []byte(popKeyPrefix+string(id)))
		if err != nil {
			return err
		}
		score = rec.Popularity + float64(n)
		return nil
	})
	return score, err
}

// GetLikedOrPlayedSongIDs returns a user's distinct liked or played songs,
// likes first, each group in ascending ID order.
func (s *Store) GetLikedOrPlayedSongIDs(ctx context.Context, userID string) ([]recommend.SongID, error) {
	out := []recommend.SongID{}
	seen := make(map[recommend.SongID]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		for _, p := range []string{likeKeyPrefix, playKeyPrefix} {
			prefix := p + userID + ":"
			keys, err := keysWithPrefix(txn, []byte(prefix))
			if err != nil {
				return err
			}
			for _, key := range keys {
				id := recommend.SongID(key[len(prefix):])
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reset drops all songs and interactions.
func (s *Store) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("drop all: %w", err)
	}
	return nil
}

// Len returns the number of stored songs.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		keys, err := keysWithPrefix(txn, []byte(songKeyPrefix))
		n = len(keys)
		return err
	})
	return n, err
}

func songKey(id recommend.SongID) []byte {
	return []byte(songKeyPrefix + string(id))
}

func vectorPrefix(id recommend.SongID) []byte {
	return []byte(vectorKeyPrefix + string(id) + ":")
}

func vectorKey(id recommend.SongID, m recommend.Modality) []byte {
	return []byte(vectorKeyPrefix + string(id) + ":" + string(m))
}

func getRecord(txn *badger.Txn, id recommend.SongID) (songRecord, error) {
	var rec songRecord
	item, err := txn.Get(songKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, fmt.Errorf("song %s: %w", id, recommend.ErrSongNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get song: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return rec, fmt.Errorf("unmarshal song %s: %w", id, err)
	}
	return rec, nil
}

func loadVectors(txn *badger.Txn, song *recommend.Song) error {
	opts := badger.DefaultIteratorOptions
	prefix := vectorPrefix(song.ID)
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name := string(item.Key()[len(prefix):])
		m, err := recommend.ParseModality(name)
		if err != nil {
			return fmt.Errorf("song %s: %w", song.ID, err)
		}
		var vec recommend.ModalityVector
		if err := item.Value(func(val []byte) error {
			var derr error
			vec, derr = vecblob.Decode(val)
			return derr
		}); err != nil {
			return fmt.Errorf("song %s %s vector: %w", song.ID, m, err)
		}
		if song.Vectors == nil {
			song.Vectors = make(recommend.ModalityVectors)
		}
		song.Vectors[m] = vec
	}
	return nil
}

func keysWithPrefix(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

func counter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	var n uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("counter %s: bad length %d", key, len(val))
		}
		n = binary.BigEndian.Uint64(val)
		return nil
	})
	return n, err
}

func increment(txn *badger.Txn, key []byte) error {
	n, err := counter(txn, key)
	if err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n+1)
	if err := txn.Set(key, buf); err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

// Interface compliance.
var (
	_ recommend.VectorStore   = (*Store)(nil)
	_ recommend.ProfileSource = (*Store)(nil)
	_ catalog.Resetter        = (*Store)(nil)
)
