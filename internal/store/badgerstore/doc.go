// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package badgerstore persists songs, modality vectors and user interactions in
BadgerDB.

# Key Layout

	song:<id>                 JSON {song, popularity}
	vec:<id>:<modality>       little-endian float32 vector
	like:<user>:<song>        uint64 like count
	play:<user>:<song>        uint64 play count
	pop:<song>                uint64 likes plus plays

Song and user IDs never contain ':' (see validation.ValidateID), so every
prefix scan is exact. Badger iterates keys in byte order, which makes
ListCandidates return songs ordered by ascending ID without sorting.

Vectors are stored as float32. Values that are not exactly representable lose
precision on the round trip; cosine rankings are unaffected in practice.

# Concurrency

Reads run in concurrent View transactions. Writes are serialized by a mutex
so read-modify-write counters never hit badger.ErrConflict.
*/
package badgerstore
