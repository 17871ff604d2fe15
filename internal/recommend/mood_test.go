// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"reflect"
	"sort"
	"testing"
)

func newDefaultMoodMapper(t *testing.T) *MoodMapper {
	t.Helper()
	f := newTestFuser(t, DefaultDimensions())
	policy, err := DefaultConfig().Policies.ByMood.Build(PolicyByMood)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	m, err := NewMoodMapper(f, policy)
	if err != nil {
		t.Fatalf("NewMoodMapper() error = %v", err)
	}
	return m
}

func TestMoods(t *testing.T) {
	t.Parallel()

	got := Moods()
	want := []string{MoodCalm, MoodEnergetic, MoodHappy, MoodMelancholic, MoodRomantic, MoodSad}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Moods() = %v, want %v", got, want)
	}
	if !sort.StringsAreSorted(got) {
		t.Error("Moods() not sorted")
	}
}

func TestMoodMapper_VectorForMood(t *testing.T) {
	t.Parallel()

	m := newDefaultMoodMapper(t)
	wantDim := m.Policy().FusedDim(DefaultDimensions())

	for _, label := range Moods() {
		t.Run(label, func(t *testing.T) {
			t.Parallel()
			mv, err := m.VectorForMood(label)
			if err != nil {
				t.Fatalf("VectorForMood(%q) error = %v", label, err)
			}
			if mv.Mood != label {
				t.Errorf("Mood = %q, want %q", mv.Mood, label)
			}
			if mv.Policy != PolicyByMood {
				t.Errorf("Policy = %q, want %q", mv.Policy, PolicyByMood)
			}
			if len(mv.Vector) != wantDim {
				t.Errorf("len = %d, want %d", len(mv.Vector), wantDim)
			}
			if n := norm(mv.Vector); !approxEqual(n, 1) {
				t.Errorf("norm = %v, want 1", n)
			}
		})
	}
}

func TestMoodMapper_CaseInsensitive(t *testing.T) {
	t.Parallel()

	m := newDefaultMoodMapper(t)
	want, err := m.VectorForMood(MoodHappy)
	if err != nil {
		t.Fatalf("VectorForMood() error = %v", err)
	}

	for _, label := range []string{"Happy", "HAPPY", "  happy\t"} {
		got, err := m.VectorForMood(label)
		if err != nil {
			t.Errorf("VectorForMood(%q) error = %v", label, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("VectorForMood(%q) differs from %q", label, MoodHappy)
		}
	}
}

func TestMoodMapper_UnknownMood(t *testing.T) {
	t.Parallel()

	m := newDefaultMoodMapper(t)

	for _, label := range []string{"angry", "", "happy-ish"} {
		_, err := m.VectorForMood(label)
		if !errors.Is(err, ErrUnknownMood) {
			t.Fatalf("VectorForMood(%q) error = %v, want ErrUnknownMood", label, err)
		}
		var um *UnknownMoodError
		if !errors.As(err, &um) {
			t.Fatalf("error %T is not *UnknownMoodError", err)
		}
		if um.Label != label {
			t.Errorf("Label = %q, want %q", um.Label, label)
		}
		if len(um.Known) != len(Moods()) {
			t.Errorf("Known = %v, want all %d moods", um.Known, len(Moods()))
		}
	}
}

func TestMoodMapper_OpposingMoods(t *testing.T) {
	t.Parallel()

	m := newDefaultMoodMapper(t)
	happy, _ := m.VectorForMood(MoodHappy)
	sad, _ := m.VectorForMood(MoodSad)
	melancholic, _ := m.VectorForMood(MoodMelancholic)

	hs, err := Cosine(happy.Vector, sad.Vector)
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if hs >= 0 {
		t.Errorf("cosine(happy, sad) = %v, want negative", hs)
	}

	sm, err := Cosine(sad.Vector, melancholic.Vector)
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if sm <= hs {
		t.Errorf("cosine(sad, melancholic) = %v, want above cosine(happy, sad) = %v", sm, hs)
	}
}

func TestMoodMapper_MoodsIsCopy(t *testing.T) {
	t.Parallel()

	m := newDefaultMoodMapper(t)
	labels := m.Moods()
	labels[0] = "mutated"

	if m.Moods()[0] == "mutated" {
		t.Error("Moods() exposes internal slice")
	}
}

func TestExpandGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		coeffs []float64
		dim    int
		want   ModalityVector
	}{
		{"even split", []float64{1, 2}, 4, ModalityVector{1, 1, 2, 2}},
		{"uneven split", []float64{1, 2}, 5, ModalityVector{1, 1, 1, 2, 2}},
		{"one per group", []float64{1, 2, 3}, 3, ModalityVector{1, 2, 3}},
		{"fewer dims than groups", []float64{1, 2, 3, 4, 5}, 2, ModalityVector{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expandGroups(tt.coeffs, tt.dim); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expandGroups() = %v, want %v", got, tt.want)
			}
		})
	}
}
