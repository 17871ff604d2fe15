// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// songNamespace derives stable IDs for songs declared without one.
var songNamespace = uuid.MustParse("6f1c64a4-3b0e-4b8e-9a57-2f1c3d9e7b10")

// Catalog is the on-disk description of songs and user history.
type Catalog struct {
	Songs []SongEntry `yaml:"songs" validate:"dive"`
	Users []UserEntry `yaml:"users" validate:"dive"`
}

// SongEntry is one song in a catalog file.
type SongEntry struct {
	// ID is optional; when empty a name-based UUID is derived from artist and title.
	ID              string               `yaml:"id,omitempty"`
	Title           string               `yaml:"title" validate:"required"`
	Artist          string               `yaml:"artist" validate:"required"`
	Album           string               `yaml:"album,omitempty"`
	Genre           string               `yaml:"genre,omitempty"`
	Year            int                  `yaml:"year,omitempty" validate:"gte=0"`
	DurationSeconds int                  `yaml:"duration_seconds,omitempty" validate:"gte=0"`
	Popularity      float64              `yaml:"popularity,omitempty" validate:"gte=0"`
	Vectors         map[string][]float64 `yaml:"vectors"`
}

// UserEntry is one user's liked and played songs.
type UserEntry struct {
	ID     string   `yaml:"id" validate:"id"`
	Liked  []string `yaml:"liked,omitempty" validate:"dive,id"`
	Played []string `yaml:"played,omitempty" validate:"dive,id"`
}

// SongID returns the entry's ID, deriving one from artist and title if unset.
func (e *SongEntry) SongID() recommend.SongID {
	if e.ID != "" {
		return recommend.SongID(e.ID)
	}
	name := strings.ToLower(strings.TrimSpace(e.Artist)) + "\x00" + strings.ToLower(strings.TrimSpace(e.Title))
	return recommend.SongID(uuid.NewSHA1(songNamespace, []byte(name)).String())
}

// Song converts the entry into a recommend.Song.
func (e *SongEntry) Song() (recommend.Song, error) {
	vectors := make(recommend.ModalityVectors, len(e.Vectors))
	for name, v := range e.Vectors {
		m, err := recommend.ParseModality(name)
		if err != nil {
			return recommend.Song{}, err
		}
		if _, dup := vectors[m]; dup {
			return recommend.Song{}, fmt.Errorf("modality %s given twice", m)
		}
		vectors[m] = append(recommend.ModalityVector(nil), v...)
	}
	return recommend.Song{
		ID:              e.SongID(),
		Title:           e.Title,
		Artist:          e.Artist,
		Album:           e.Album,
		Genre:           e.Genre,
		Year:            e.Year,
		DurationSeconds: e.DurationSeconds,
		Vectors:         vectors,
	}, nil
}

// Load reads and parses a catalog file. See Parse.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog and checks its structure: required fields,
// unique song and user IDs, known modality names and a single vector length
// per modality across all songs. Unknown YAML fields are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	songIDs := make(map[recommend.SongID]int, len(c.Songs))
	lengths := make(map[recommend.Modality]int)
	for i := range c.Songs {
		e := &c.Songs[i]
		id := e.SongID()
		if err := validation.ValidateID("song id", string(id)); err != nil {
			return fmt.Errorf("songs[%d]: %w", i, err)
		}
		if prev, dup := songIDs[id]; dup {
			return fmt.Errorf("songs[%d]: duplicate song id %q (first at songs[%d])", i, id, prev)
		}
		songIDs[id] = i

		song, err := e.Song()
		if err != nil {
			return fmt.Errorf("songs[%d] (%s): %w", i, id, err)
		}
		for m, v := range song.Vectors {
			for _, x := range v {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return fmt.Errorf("songs[%d] (%s): %w", i, id,
						&recommend.DegenerateVectorError{What: string(m) + " vector", NonFinite: true})
				}
			}
			want, seen := lengths[m]
			if !seen {
				lengths[m] = len(v)
				continue
			}
			if len(v) != want {
				return fmt.Errorf("songs[%d] (%s): %w", i, id,
					&recommend.DimensionMismatchError{Modality: m, Want: want, Got: len(v)})
			}
		}
	}

	userIDs := make(map[string]struct{}, len(c.Users))
	for i := range c.Users {
		if _, dup := userIDs[c.Users[i].ID]; dup {
			return fmt.Errorf("users[%d]: duplicate user id %q", i, c.Users[i].ID)
		}
		userIDs[c.Users[i].ID] = struct{}{}
	}
	return nil
}

// CheckDimensions verifies every vector against the configured dimensions.
func (c *Catalog) CheckDimensions(dims recommend.Dimensions) error {
	for i := range c.Songs {
		e := &c.Songs[i]
		for name, v := range e.Vectors {
			m, err := recommend.ParseModality(name)
			if err != nil {
				return fmt.Errorf("songs[%d]: %w", i, err)
			}
			if want := dims.Of(m); len(v) != want {
				return fmt.Errorf("songs[%d] (%s): %w", i, e.SongID(),
					&recommend.DimensionMismatchError{Modality: m, Want: want, Got: len(v)})
			}
		}
	}
	return nil
}
