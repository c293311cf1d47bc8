// Package account validates Substrate account identifiers.
//
// An identifier is accepted in SS58 text form (base58 with a network prefix
// and a blake2b checksum) or as a 0x-prefixed 32-byte hex public key.
package account

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// PublicKeySize is the byte length of an account public key.
const PublicKeySize = 32

const checksumSize = 2

var checksumPrefix = []byte("SS58PRE")

// ErrInvalidAccount indicates a string that is not an account identifier.
var ErrInvalidAccount = errors.New("invalid account id")

// Validate reports whether id is a well-formed account identifier.
func Validate(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAccount)
	}
	if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
		return validateHex(id[2:])
	}
	return validateSS58(id)
}

// IsValid is Validate reduced to a boolean.
func IsValid(id string) bool {
	return Validate(id) == nil
}

// PublicKey returns the 32-byte public key encoded in id.
func PublicKey(id string) ([]byte, error) {
	if err := Validate(id); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
		return hex.DecodeString(id[2:])
	}
	data := base58.Decode(id)
	prefixLen := 1
	if data[0] >= 64 {
		prefixLen = 2
	}
	return append([]byte(nil), data[prefixLen:prefixLen+PublicKeySize]...), nil
}

// Normalize extracts the account id from a raw input cell. Contest exports
// often hold explorer links, so for URLs and paths the last non-empty path
// segment is returned.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if govalidator.IsURL(raw) && strings.Contains(raw, "/") {
		if u, err := url.Parse(raw); err == nil && u.Path != "" {
			raw = u.Path
		}
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	segments := strings.Split(raw, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return ""
}

func validateHex(s string) error {
	if len(s) != PublicKeySize*2 {
		return fmt.Errorf("%w: hex key must be %d characters, got %d", ErrInvalidAccount, PublicKeySize*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return nil
}

func validateSS58(s string) error {
	data := base58.Decode(s)
	if len(data) == 0 {
		return fmt.Errorf("%w: not base58", ErrInvalidAccount)
	}

	var prefixLen int
	switch {
	case data[0] < 64:
		prefixLen = 1
	case data[0] < 128:
		prefixLen = 2
	default:
		return fmt.Errorf("%w: reserved address prefix %d", ErrInvalidAccount, data[0])
	}
	if len(data) != prefixLen+PublicKeySize+checksumSize {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAccount, len(data))
	}

	body := data[:len(data)-checksumSize]
	sum := ss58Checksum(body)
	if !bytes.Equal(sum[:checksumSize], data[len(data)-checksumSize:]) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidAccount)
	}
	return nil
}

func ss58Checksum(body []byte) [blake2b.Size]byte {
	payload := make([]byte, 0, len(checksumPrefix)+len(body))
	payload = append(payload, checksumPrefix...)
	payload = append(payload, body...)
	return blake2b.Sum512(payload)
}
