// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package vecblob encodes modality vectors as byte blobs for the persistent
// stores. A blob is a little-endian sequence of IEEE 754 float32 values with
// no length prefix; the length follows from the blob size.
package vecblob

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tomtom215/cadence/internal/recommend"
)

// Encode converts v to a blob. Values lose precision beyond float32.
func Encode(v recommend.ModalityVector) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(x)))
	}
	return buf
}

// Decode converts a blob produced by Encode back to a vector.
func Decode(buf []byte) (recommend.ModalityVector, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(buf))
	}
	v := make(recommend.ModalityVector, len(buf)/4)
	for i := range v {
		v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
	}
	return v, nil
}
