// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrUnknownMood         = errors.New("unknown mood")
	ErrDegenerateVector    = errors.New("degenerate vector")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrSongNotFound        = errors.New("song not found")
	ErrInvalidPolicy       = errors.New("invalid fusion policy")
)

// DimensionMismatchError reports a vector whose length disagrees with the
// expected length. Modality is empty when the mismatch is between fused vectors.
type DimensionMismatchError struct {
	Modality Modality
	Want     int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	if e.Modality == "" {
		return fmt.Sprintf("fused vector dimension mismatch: want %d, got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("%s vector dimension mismatch: want %d, got %d", e.Modality, e.Want, e.Got)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// UnknownMoodError reports a mood label outside the supported set.
type UnknownMoodError struct {
	Label string
	Known []string
}

func (e *UnknownMoodError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown mood %q", e.Label)
	}
	return fmt.Sprintf("unknown mood %q (valid: %s)", e.Label, strings.Join(e.Known, ", "))
}

// Is reports whether target is ErrUnknownMood.
func (e *UnknownMoodError) Is(target error) bool {
	return target == ErrUnknownMood
}

// DegenerateVectorError reports a vector with no usable direction where one
// is required (normalization or cosine similarity): zero magnitude, or a NaN
// or infinite component or magnitude.
type DegenerateVectorError struct {
	// What names the offending vector, e.g. "query" or "song 42".
	What string

	// NonFinite is set when the vector holds NaN or infinite values.
	NonFinite bool
}

func (e *DegenerateVectorError) Error() string {
	problem := "zero magnitude"
	if e.NonFinite {
		problem = "non-finite values"
	}
	if e.What == "" {
		return "degenerate vector: " + problem
	}
	return fmt.Sprintf("degenerate vector: %s has %s", e.What, problem)
}

// Is reports whether target is ErrDegenerateVector.
func (e *DegenerateVectorError) Is(target error) bool {
	return target == ErrDegenerateVector
}

// InsufficientHistoryError reports that a user has no usable liked or played
// songs to build a taste profile from.
type InsufficientHistoryError struct {
	UserID string
	// Missing counts history entries that referenced songs no longer in the store.
	Missing int
}

func (e *InsufficientHistoryError) Error() string {
	msg := "insufficient history"
	if e.UserID != "" {
		msg = fmt.Sprintf("insufficient history for user %q", e.UserID)
	}
	if e.Missing > 0 {
		msg += fmt.Sprintf(" (%d history songs missing from catalog)", e.Missing)
	}
	return msg
}

// Is reports whether target is ErrInsufficientHistory.
func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// ErrorKind maps an error to a short stable label for metrics and CLI output.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrUnknownMood):
		return "unknown_mood"
	case errors.Is(err, ErrDegenerateVector):
		return "degenerate_vector"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrSongNotFound):
		return "song_not_found"
	case errors.Is(err, ErrInvalidPolicy):
		return "invalid_policy"
	default:
		return "internal"
	}
}
