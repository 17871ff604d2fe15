// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator that reports fields by their
// yaml/koanf names and registers one custom tag:
//
//	id  non-empty, no ':' and no control whitespace; song and user IDs
//	    become BadgerDB key segments, where ':' is the separator
//
// Usage:
//
//	type SongEntry struct {
//	    ID         string  `yaml:"id" validate:"id"`
//	    Popularity float64 `yaml:"popularity" validate:"gte=0"`
//	}
//
//	if err := validation.ValidateStruct(&entry); err != nil {
//	    return fmt.Errorf("invalid song: %w", err)
//	}
//
// Failures are returned as *Error, which lists one FieldError per field.
package validation
