package blockhash

import (
	"errors"
	"testing"

	"github.com/louisbranch/fairdraw/internal/core/xorshift"
)

const contestHash = "0x8b78fea9ac95c604174b7efbd9bf59e5113b022ae2f1c52d694f98100b074172"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr error
	}{
		{name: "prefixed", input: contestHash, wantLen: 32},
		{name: "bare", input: contestHash[2:], wantLen: 32},
		{name: "upper prefix and padding", input: "  0X00FF  ", wantLen: 2},
		{name: "empty", input: "", wantErr: ErrInvalidHash},
		{name: "prefix only", input: "0x", wantErr: ErrInvalidHash},
		{name: "odd length", input: "0xabc", wantErr: ErrInvalidHash},
		{name: "not hex", input: "0xzz", wantErr: ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(h) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(h), tt.wantLen)
			}
		})
	}
}

func TestParse_ByteOrder(t *testing.T) {
	h, err := Parse(contestHash)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h[0] != 0x8b || h[1] != 0x78 || h[31] != 0x72 {
		t.Fatalf("unexpected byte order: % x", h)
	}
	if h.String() != contestHash {
		t.Fatalf("String() = %q, want %q", h.String(), contestHash)
	}
}

func TestHash_BytesIsCopy(t *testing.T) {
	h, _ := Parse(contestHash)
	b := h.Bytes()
	b[0] = 0
	if h[0] != 0x8b {
		t.Fatal("Bytes() exposed internal storage")
	}
}

func TestHash_Generator(t *testing.T) {
	h, _ := Parse(contestHash)
	g, err := h.Generator()
	if err != nil {
		t.Fatalf("Generator() error = %v", err)
	}
	if got := g.Uint64(); got != 14142173817839841180 {
		t.Fatalf("first draw = %d", got)
	}

	zero, _ := Parse("0x0000")
	if _, err := zero.Generator(); !errors.Is(err, xorshift.ErrInvalidSeed) {
		t.Fatalf("Generator() error = %v, want ErrInvalidSeed", err)
	}
}
