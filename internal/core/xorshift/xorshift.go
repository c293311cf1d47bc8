package xorshift

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Lanes is the number of 64-bit words in the generator state.
	Lanes = 16
	// SeedSize is the number of seed bytes needed to fill the whole state.
	SeedSize = Lanes * 8

	multiplier = 1181783497276652981
)

// ErrInvalidSeed indicates seed bytes that cannot populate the generator state.
var ErrInvalidSeed = errors.New("invalid seed")

// Generator is a XorShift1024* generator. It is not safe for concurrent use;
// independent auditors should each construct their own instance.
type Generator struct {
	s [Lanes]uint64
	p int
}

// New creates a generator from seed bytes.
//
// # Seed mapping
//
// Seed bytes fill the 128-byte state in order. Lane i is read big-endian from
// bytes [8i, 8i+8), the same order in which a hex string is written. When
// fewer than SeedSize bytes are supplied the rest of the state is zero.
// A 32-byte block hash therefore fills lanes 0 through 3.
//
// # Errors
//
// ErrInvalidSeed is returned when the seed is empty, longer than SeedSize, or
// leaves every lane zero (a zero state emits zero forever).
func New(seed []byte) (*Generator, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: seed is empty", ErrInvalidSeed)
	}
	if len(seed) > SeedSize {
		return nil, fmt.Errorf("%w: seed has %d bytes, at most %d allowed", ErrInvalidSeed, len(seed), SeedSize)
	}

	var buf [SeedSize]byte
	copy(buf[:], seed)

	g := &Generator{}
	var nonZero bool
	for i := range g.s {
		g.s[i] = binary.BigEndian.Uint64(buf[i*8 : i*8+8])
		if g.s[i] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return nil, fmt.Errorf("%w: seed maps to an all-zero state", ErrInvalidSeed)
	}
	return g, nil
}

// Uint64 advances the state by one step and returns the next value.
func (g *Generator) Uint64() uint64 {
	s0 := g.s[g.p]
	g.p = (g.p + 1) & (Lanes - 1)
	s1 := g.s[g.p]
	s1 ^= s1 << 31
	g.s[g.p] = s1 ^ s0 ^ (s1 >> 11) ^ (s0 >> 30)
	return g.s[g.p] * multiplier
}
