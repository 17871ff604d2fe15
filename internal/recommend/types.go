// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"strings"
	"time"
)

// SongID uniquely identifies a song. Ordering between IDs is plain byte-wise
// string comparison.
type SongID string

// ModalityVector is a fixed-length feature vector from one modality.
type ModalityVector []float64

// ModalityVectors holds a song's per-modality vectors. A modality may be absent.
type ModalityVectors map[Modality]ModalityVector

// FusedVector is the weighted concatenation of modality vectors under a policy.
type FusedVector []float64

// Song is a catalog entry with metadata and modality vectors.
type Song struct {
	// ID is the unique song identifier.
	ID SongID `json:"id"`

	// Title is the song title.
	Title string `json:"title"`

	// Artist is the performing artist.
	Artist string `json:"artist"`

	// Album is the album title.
	Album string `json:"album,omitempty"`

	// Genre is the primary genre.
	Genre string `json:"genre,omitempty"`

	// Year is the release year.
	Year int `json:"year,omitempty"`

	// DurationSeconds is the track length.
	DurationSeconds int `json:"duration_seconds,omitempty"`

	// Vectors holds the pre-computed modality feature vectors.
	Vectors ModalityVectors `json:"-"`
}

// Candidate is a song together with its fused vector under some policy.
type Candidate struct {
	Song   Song        `json:"song"`
	Vector FusedVector `json:"-"`
}

// RankedResult is a candidate with its similarity score and a human-readable reason.
type RankedResult struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
}

// Ranking is the output of Rank.
type Ranking struct {
	// Results are ordered by score descending, ties by ascending song ID.
	Results []RankedResult

	// Skipped counts candidates dropped because their vector had zero magnitude.
	Skipped int
}

// CandidateFilter narrows the candidate set fetched from a VectorStore.
type CandidateFilter struct {
	// Artist restricts candidates to one artist (case-insensitive). Empty means any.
	Artist string `json:"artist,omitempty"`

	// Genre restricts candidates to one genre (case-insensitive). Empty means any.
	Genre string `json:"genre,omitempty"`

	// Limit caps the number of candidates returned. Zero means no cap.
	Limit int `json:"limit,omitempty"`
}

// Matches reports whether a song passes the artist and genre filters. Limit
// is left to the caller.
func (f CandidateFilter) Matches(song *Song) bool {
	if f.Artist != "" && !strings.EqualFold(song.Artist, f.Artist) {
		return false
	}
	if f.Genre != "" && !strings.EqualFold(song.Genre, f.Genre) {
		return false
	}
	return true
}

// VectorStore provides read access to songs and their modality vectors.
type VectorStore interface {
	// GetSong returns a song with its vectors, or an error wrapping ErrSongNotFound.
	GetSong(ctx context.Context, id SongID) (Song, error)

	// ListCandidates returns songs matching the filter, ordered by ascending ID.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]Song, error)

	// GetPopularityScore returns a non-negative popularity score for a song.
	GetPopularityScore(ctx context.Context, id SongID) (float64, error)
}

// ProfileSource provides a user's listening history.
type ProfileSource interface {
	// GetLikedOrPlayedSongIDs returns the IDs of songs the user liked or played.
	GetLikedOrPlayedSongIDs(ctx context.Context, userID string) ([]SongID, error)
}

// Reranker post-processes a ranked list, e.g. for diversity.
type Reranker interface {
	// Name returns the reranker identifier.
	Name() string

	// Rerank reorders results and returns at most k of them.
	Rerank(ctx context.Context, results []RankedResult, k int) []RankedResult
}

// RecommendMode identifies the recommendation strategy.
type RecommendMode int

const (
	// ModeBySong recommends songs similar to a seed song.
	ModeBySong RecommendMode = iota
	// ModeByMood recommends songs matching a mood label.
	ModeByMood
	// ModeByImage recommends songs whose cover art matches an image vector.
	ModeByImage
	// ModePersonalized recommends songs matching a user's listening history.
	ModePersonalized
	// ModePopular recommends the most popular songs.
	ModePopular
)

// String returns the mode name.
func (m RecommendMode) String() string {
	switch m {
	case ModeBySong:
		return "by_song"
	case ModeByMood:
		return "by_mood"
	case ModeByImage:
		return "by_image"
	case ModePersonalized:
		return "personalized"
	case ModePopular:
		return "popular"
	default:
		return "unknown"
	}
}

// Query is a recommendation query. The set of implementations is closed:
// BySong, ByMood, ByImage, Personalized and Popular.
type Query interface {
	Mode() RecommendMode
	isQuery()
}

// BySong asks for songs similar to a seed song.
type BySong struct {
	SongID SongID
}

// ByMood asks for songs matching a mood label.
type ByMood struct {
	Label string
}

// ByImage asks for songs whose cover art resembles an image vector.
type ByImage struct {
	Vector ModalityVector
}

// Personalized asks for songs matching a user's listening history.
type Personalized struct {
	UserID string
}

// Popular asks for the most popular songs.
type Popular struct{}

func (BySong) Mode() RecommendMode       { return ModeBySong }
func (ByMood) Mode() RecommendMode       { return ModeByMood }
func (ByImage) Mode() RecommendMode      { return ModeByImage }
func (Personalized) Mode() RecommendMode { return ModePersonalized }
func (Popular) Mode() RecommendMode      { return ModePopular }

func (BySong) isQuery()       {}
func (ByMood) isQuery()       {}
func (ByImage) isQuery()      {}
func (Personalized) isQuery() {}
func (Popular) isQuery()      {}

// Request contains parameters for a recommendation request.
type Request struct {
	// Query selects the mode and its input.
	Query Query

	// K is the number of results to return. Zero means the configured default.
	K int

	// Filter narrows the candidate set.
	Filter CandidateFilter

	// RequestID is an optional caller-supplied ID. Generated if empty.
	RequestID string
}

// Response contains recommendation results.
type Response struct {
	// Items are the ranked recommendations.
	Items []RankedResult `json:"items"`

	// TotalCandidates is the number of candidates considered.
	TotalCandidates int `json:"total_candidates"`

	// Skipped counts candidates dropped for degenerate vectors and, for
	// personalized requests, history songs missing from the catalog.
	Skipped int `json:"skipped"`

	// Metadata contains request processing details.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains details about request processing.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// Mode is the recommendation mode used.
	Mode string `json:"mode"`

	// Policy is the fusion policy name, empty for popular.
	Policy string `json:"policy,omitempty"`

	// Rerankers lists the rerankers applied.
	Rerankers []string `json:"rerankers,omitempty"`

	// LatencyMS is the processing time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// FusionCacheHits counts candidates whose fused vector came from cache.
	FusionCacheHits int `json:"fusion_cache_hits"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}
