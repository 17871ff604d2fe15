// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package catalog loads YAML song catalogs and imports them into a store.
//
// A catalog lists songs with metadata, an optional base popularity and
// pre-computed modality vectors, plus users with liked and played songs:
//
//	songs:
//	  - id: s1
//	    title: Blue in Green
//	    artist: Miles Davis
//	    genre: jazz
//	    popularity: 12
//	    vectors:
//	      audio: [0.1, 0.4, ...]
//	      image: [...]
//	      text:  [...]
//	users:
//	  - id: alice
//	    liked: [s1]
//	    played: [s1, s7]
//
// Parse checks structure (unique IDs, consistent vector lengths per modality);
// CheckDimensions checks lengths against the engine's configured dimensions.
// Import writes through the Writer port, which both stores implement.
package catalog
