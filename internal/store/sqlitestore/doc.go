// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package sqlitestore persists songs, modality vectors and user interactions in
a single SQLite file through the pure-Go modernc.org/sqlite driver.

# Schema

	songs(id PK, title, artist, album, genre, year, duration_seconds, popularity)
	vectors(song_id, modality, data)           PK (song_id, modality)
	interactions(user_id, song_id, kind, total) PK (user_id, song_id, kind)

Vector data uses the vecblob encoding shared with badgerstore. kind is "like"
or "play"; popularity is songs.popularity plus the summed interaction counts.
Interactions may name songs that are not in the songs table.

Song IDs compare with SQLite's BINARY collation, so ORDER BY id matches Go
string ordering.

# Concurrency

The pool is limited to one connection. SQLite serializes writers anyway, and
a single connection keeps an in-memory database alive for the life of the
Store.
*/
package sqlitestore
