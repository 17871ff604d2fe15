// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package memstore

import (
	"context"
	"testing"

	"github.com/tomtom215/cadence/internal/store/storetest"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return New()
	})
}

func TestStore_Len(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "a"} {
		if err := s.PutSong(ctx, storetest.Song(id, "x", "", 1), 0); err != nil {
			t.Fatalf("PutSong() error = %v", err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
