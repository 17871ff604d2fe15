// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewFusionPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pname   string
		weights map[Modality]float64
		norm    Normalization
		wantErr bool
	}{
		{name: "valid", pname: "p", weights: map[Modality]float64{ModalityAudio: 1, ModalityImage: 0.5}, norm: NormalizeL2},
		{name: "single modality", pname: "p", weights: map[Modality]float64{ModalityText: 2}, norm: NormalizeNone},
		{name: "zero weights allowed alongside positive", pname: "p", weights: map[Modality]float64{ModalityAudio: 1, ModalityText: 0}, norm: NormalizeL2},
		{name: "empty name", pname: " ", weights: map[Modality]float64{ModalityAudio: 1}, norm: NormalizeL2, wantErr: true},
		{name: "unknown normalization", pname: "p", weights: map[Modality]float64{ModalityAudio: 1}, norm: "max", wantErr: true},
		{name: "unknown modality", pname: "p", weights: map[Modality]float64{"video": 1}, norm: NormalizeL2, wantErr: true},
		{name: "negative weight", pname: "p", weights: map[Modality]float64{ModalityAudio: 1, ModalityImage: -0.1}, norm: NormalizeL2, wantErr: true},
		{name: "NaN weight", pname: "p", weights: map[Modality]float64{ModalityAudio: math.NaN()}, norm: NormalizeL2, wantErr: true},
		{name: "infinite weight", pname: "p", weights: map[Modality]float64{ModalityAudio: math.Inf(1)}, norm: NormalizeL2, wantErr: true},
		{name: "no positive weight", pname: "p", weights: map[Modality]float64{ModalityAudio: 0}, norm: NormalizeL2, wantErr: true},
		{name: "nil weights", pname: "p", weights: nil, norm: NormalizeL2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFusionPolicy(tt.pname, tt.weights, tt.norm)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFusionPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("error = %v, want ErrInvalidPolicy", err)
			}
		})
	}
}

func TestMustFusionPolicy_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustFusionPolicy did not panic on invalid policy")
		}
	}()
	MustFusionPolicy("bad", nil, NormalizeL2)
}

func TestFusionPolicy_Accessors(t *testing.T) {
	t.Parallel()

	p := MustFusionPolicy("mix", map[Modality]float64{ModalityAudio: 1, ModalityText: 0.5}, NormalizeL2)
	dims := Dimensions{Audio: 128, Image: 512, Text: 384}

	if !p.Includes(ModalityAudio) || p.Includes(ModalityImage) || !p.Includes(ModalityText) {
		t.Errorf("Includes() wrong for %s", p)
	}
	if got := p.FusedDim(dims); got != 512 {
		t.Errorf("FusedDim() = %d, want 512", got)
	}
	if got := p.Weight("video"); got != 0 {
		t.Errorf("Weight(unknown) = %v, want 0", got)
	}

	w := p.Weights()
	w[ModalityAudio] = 99
	if p.Weight(ModalityAudio) != 1 {
		t.Error("Weights() exposes internal state")
	}
	if len(w) != 3 {
		t.Errorf("Weights() has %d entries, want 3", len(w))
	}

	if s := p.String(); !strings.Contains(s, "mix") || !strings.Contains(s, "norm=l2") {
		t.Errorf("String() = %q", s)
	}
}

func TestParseModality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Modality
		wantErr bool
	}{
		{"audio", ModalityAudio, false},
		{" Image ", ModalityImage, false},
		{"TEXT", ModalityText, false},
		{"lyrics", "", true},
	}

	for _, tt := range tests {
		got, err := ParseModality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseModality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModality(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModalities_CanonicalOrder(t *testing.T) {
	t.Parallel()

	got := Modalities()
	want := []Modality{ModalityAudio, ModalityImage, ModalityText}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Modalities() = %v, want %v", got, want)
		}
	}
	got[0] = "changed"
	if Modalities()[0] != ModalityAudio {
		t.Error("Modalities() exposes internal array")
	}
}

func TestParseNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Normalization
		wantErr bool
	}{
		{"", NormalizeL2, false},
		{"l2", NormalizeL2, false},
		{"L2", NormalizeL2, false},
		{"none", NormalizeNone, false},
		{"l1", "", true},
	}

	for _, tt := range tests {
		got, err := ParseNormalization(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNormalization(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNormalization(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
