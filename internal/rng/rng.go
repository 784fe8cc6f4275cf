// Package rng provides the random sources used by shop generation.
//
// Two modes exist, mirroring how practice runs are used: entropy mode for
// interactive sessions (a fresh rolldown every time) and reproducible mode
// for scripted runs and tests, where the same seed must replay the exact
// same sequence of shops.
package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source yields uniform floats in [0, 1). All shop draws go through this
// interface so tests can substitute a deterministic sequence.
type Source interface {
	Float64() float64
}

// entropySource reads crypto/rand and converts 53 bits to a float.
type entropySource struct{}

func (entropySource) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// Extremely unlikely; fall back to math/rand rather than failing a draw.
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

// NewEntropy returns the default non-reproducible source.
func NewEntropy() Source { return entropySource{} }

// mulberry32 is a simple, fast PRNG with a 32-bit state. The same algorithm
// is trivially implemented in JavaScript, so a browser client can predict
// the exact shop sequence of a seeded practice run.
// Algorithm: https://gist.github.com/tommyettinger/46a874533244883189143505d203312c
type mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a reproducible source seeded with the given value.
func NewMulberry32(seed uint32) Source {
	return &mulberry32{state: seed}
}

// next returns the next random uint32.
func (m *mulberry32) next() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a random float64 in [0, 1).
func (m *mulberry32) Float64() float64 {
	return float64(m.next()) / 4294967296.0
}
