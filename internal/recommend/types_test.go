// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecommendMode_String(t *testing.T) {
	tests := []struct {
		mode     RecommendMode
		expected string
	}{
		{ModeBySong, "by_song"},
		{ModeByMood, "by_mood"},
		{ModeByImage, "by_image"},
		{ModePersonalized, "personalized"},
		{ModePopular, "popular"},
		{RecommendMode(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.expected {
				t.Errorf("RecommendMode(%d).String() = %q, want %q", tt.mode, got, tt.expected)
			}
		})
	}
}

func TestQuery_Mode(t *testing.T) {
	tests := []struct {
		query Query
		want  RecommendMode
	}{
		{BySong{SongID: "a"}, ModeBySong},
		{ByMood{Label: "calm"}, ModeByMood},
		{ByImage{Vector: ModalityVector{1}}, ModeByImage},
		{Personalized{UserID: "u"}, ModePersonalized},
		{Popular{}, ModePopular},
	}

	for _, tt := range tests {
		if got := tt.query.Mode(); got != tt.want {
			t.Errorf("%T.Mode() = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"dimension mismatch", &DimensionMismatchError{Modality: ModalityAudio, Want: 2, Got: 3}, "dimension_mismatch"},
		{"wrapped unknown mood", fmt.Errorf("query: %w", &UnknownMoodError{Label: "angry"}), "unknown_mood"},
		{"degenerate", &DegenerateVectorError{What: "query"}, "degenerate_vector"},
		{"insufficient history", &InsufficientHistoryError{UserID: "u"}, "insufficient_history"},
		{"song not found", fmt.Errorf("get seed song: %w", ErrSongNotFound), "song_not_found"},
		{"invalid policy", fmt.Errorf("%w: bad", ErrInvalidPolicy), "invalid_policy"},
		{"other", errors.New("disk on fire"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Errorf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"fused mismatch", &DimensionMismatchError{Want: 4, Got: 5}, "fused vector dimension mismatch: want 4, got 5"},
		{"modality mismatch", &DimensionMismatchError{Modality: ModalityText, Want: 384, Got: 10}, "text vector dimension mismatch"},
		{"unknown mood lists valid", &UnknownMoodError{Label: "angry", Known: []string{"calm", "sad"}}, "valid: calm, sad"},
		{"degenerate names vector", &DegenerateVectorError{What: "query"}, "query has zero magnitude"},
		{"degenerate non-finite", &DegenerateVectorError{What: "audio vector", NonFinite: true}, "audio vector has non-finite values"},
		{"history user", &InsufficientHistoryError{UserID: "alice", Missing: 2}, `user "alice" (2 history songs missing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestTypedErrors_DoNotCrossMatch(t *testing.T) {
	err := &UnknownMoodError{Label: "x"}
	if errors.Is(err, ErrDegenerateVector) || errors.Is(err, ErrDimensionMismatch) {
		t.Error("UnknownMoodError matched an unrelated sentinel")
	}
}

func TestCandidateFilter_Matches(t *testing.T) {
	song := Song{Artist: "Nina Simone", Genre: "Soul"}

	tests := []struct {
		filter CandidateFilter
		want   bool
	}{
		{CandidateFilter{}, true},
		{CandidateFilter{Artist: "nina simone"}, true},
		{CandidateFilter{Genre: "SOUL"}, true},
		{CandidateFilter{Artist: "Nina", Genre: "soul"}, false},
		{CandidateFilter{Genre: "jazz"}, false},
		{CandidateFilter{Limit: 1}, true},
	}

	for _, tt := range tests {
		if got := tt.filter.Matches(&song); got != tt.want {
			t.Errorf("%+v.Matches() = %v, want %v", tt.filter, got, tt.want)
		}
	}
}
