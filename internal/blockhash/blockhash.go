// Package blockhash parses block hashes used as public draw seeds.
package blockhash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/fairdraw/internal/core/xorshift"
)

// ErrInvalidHash indicates a block hash that is not well-formed hex.
var ErrInvalidHash = errors.New("invalid block hash")

// Hash is a decoded block hash.
type Hash []byte

// Parse decodes a hex block hash with an optional 0x prefix. Each pair of hex
// characters becomes one byte, most significant first.
func Parse(s string) (Hash, error) {
	raw := strings.TrimSpace(s)
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		raw = raw[2:]
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidHash)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits (%d)", ErrInvalidHash, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return Hash(b), nil
}

// Bytes returns a copy of the hash bytes.
func (h Hash) Bytes() []byte {
	return append([]byte(nil), h...)
}

// String returns the 0x-prefixed lower-case hex form.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h)
}

// Generator seeds a XorShift1024* generator from the hash.
func (h Hash) Generator() (*xorshift.Generator, error) {
	return xorshift.New(h)
}
