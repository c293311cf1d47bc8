// Package xorshift implements the XorShift1024* pseudorandom generator.
//
// A Generator is seeded from raw bytes (typically a block hash) and produces
// the exact sequence of the reference XorShift1024* algorithm, so any third
// party holding the same seed reproduces the same values on any platform.
//
// The generator is fast and has a long period but is not cryptographically
// secure. Unpredictability must come from the seed.
package xorshift
