// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"sort"
	"strings"
)

// Mood labels.
const (
	MoodHappy       = "happy"
	MoodSad         = "sad"
	MoodEnergetic   = "energetic"
	MoodCalm        = "calm"
	MoodRomantic    = "romantic"
	MoodMelancholic = "melancholic"
)

// Dimension groups per modality. A modality vector of length d is split into
// len(groups) contiguous, near-equal ranges; dimension i belongs to group i*G/d.
var (
	audioGroups = []string{"tempo", "energy", "brightness", "valence", "acousticness"}
	imageGroups = []string{"brightness", "saturation", "warmth"}
	textGroups  = []string{"positivity", "intensity", "romance", "melancholy"}
)

// moodProfile holds one target coefficient per dimension group, in [-1, 1].
type moodProfile struct {
	audio []float64
	image []float64
	text  []float64
}

// moodTable is the fixed mood coefficient table. Read-only.
var moodTable = map[string]moodProfile{
	MoodHappy: {
		audio: []float64{0.6, 0.7, 0.8, 0.9, -0.2},
		image: []float64{0.8, 0.7, 0.6},
		text:  []float64{0.9, 0.5, 0.2, -0.8},
	},
	MoodSad: {
		audio: []float64{-0.6, -0.5, -0.5, -0.9, 0.5},
		image: []float64{-0.6, -0.4, -0.3},
		text:  []float64{-0.8, 0.2, 0.1, 0.9},
	},
	MoodEnergetic: {
		audio: []float64{0.9, 0.95, 0.6, 0.5, -0.6},
		image: []float64{0.5, 0.9, 0.4},
		text:  []float64{0.4, 0.9, -0.1, -0.3},
	},
	MoodCalm: {
		audio: []float64{-0.7, -0.8, -0.1, 0.3, 0.8},
		image: []float64{0.3, -0.5, 0.2},
		text:  []float64{0.3, -0.7, 0.1, -0.1},
	},
	MoodRomantic: {
		audio: []float64{-0.2, -0.1, 0.2, 0.5, 0.4},
		image: []float64{0.1, 0.3, 0.8},
		text:  []float64{0.6, 0.3, 0.9, 0.1},
	},
	MoodMelancholic: {
		audio: []float64{-0.4, -0.3, -0.4, -0.5, 0.6},
		image: []float64{-0.4, -0.6, -0.2},
		text:  []float64{-0.4, -0.1, 0.3, 0.8},
	},
}

// Moods returns the supported mood labels in sorted order.
func Moods() []string {
	labels := make([]string, 0, len(moodTable))
	for label := range moodTable {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// MoodMapper maps mood labels to fused vectors. It is built once and read-only.
type MoodMapper struct {
	policy  FusionPolicy
	vectors map[string]MoodVector
	labels  []string
}

// NewMoodMapper expands the mood table to the fuser's dimensions and fuses each
// mood under policy, so mood vectors are comparable with candidates fused under
// the same policy.
func NewMoodMapper(fuser *Fuser, policy FusionPolicy) (*MoodMapper, error) {
	dims := fuser.Dimensions()
	m := &MoodMapper{
		policy:  policy,
		vectors: make(map[string]MoodVector, len(moodTable)),
		labels:  Moods(),
	}

	for _, label := range m.labels {
		profile := moodTable[label]
		vectors := ModalityVectors{
			ModalityAudio: expandGroups(profile.audio, dims.Audio),
			ModalityImage: expandGroups(profile.image, dims.Image),
			ModalityText:  expandGroups(profile.text, dims.Text),
		}
		fused, err := fuser.Fuse(vectors, policy)
		if err != nil {
			return nil, fmt.Errorf("mood %s: %w", label, err)
		}
		m.vectors[label] = MoodVector{Mood: label, Policy: policy.Name(), Vector: fused}
	}
	return m, nil
}

// VectorForMood returns the mood vector for a label. Labels are matched
// case-insensitively after trimming whitespace.
func (m *MoodMapper) VectorForMood(label string) (MoodVector, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	mv, ok := m.vectors[key]
	if !ok {
		return MoodVector{}, &UnknownMoodError{Label: label, Known: m.Moods()}
	}
	return mv, nil
}

// Moods returns the supported labels in sorted order.
func (m *MoodMapper) Moods() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Policy returns the policy mood vectors were fused under.
func (m *MoodMapper) Policy() FusionPolicy {
	return m.policy
}

// expandGroups spreads one coefficient per group across dim dimensions.
func expandGroups(coeffs []float64, dim int) ModalityVector {
	v := make(ModalityVector, dim)
	for i := range v {
		v[i] = coeffs[i*len(coeffs)/dim]
	}
	return v
}
