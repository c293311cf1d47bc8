// Package contest turns a contest results export into the ordered list of
// candidates eligible for a draw.
//
// # Ordering
//
// Filter keeps the input order. Draws map random indices onto positions in
// this list, so reordering the export changes the winners for a given seed.
// Digest fingerprints the exact ordered list so auditors can confirm they are
// replaying against the same input.
package contest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/fairdraw/internal/account"
	"golang.org/x/crypto/blake2b"
)

// DefaultMinPoints is the score threshold used by the learn-and-earn contest.
const DefaultMinPoints = 65

// ErrNoCandidates indicates an export with no data rows.
var ErrNoCandidates = errors.New("no candidate rows")

// Candidate is an eligible contest participant.
type Candidate struct {
	Points    int    `json:"points"`
	Handle    string `json:"twitter"`
	AccountID string `json:"accountId"`
}

// Row is one raw line of a contest export.
type Row struct {
	// Line is the 1-based line (or spreadsheet row) number, header included.
	Line    int
	Points  string
	Handle  string
	Account string
}

// Rules controls eligibility.
type Rules struct {
	MinPoints int
}

// DefaultRules returns the contest's published eligibility rules.
func DefaultRules() Rules {
	return Rules{MinPoints: DefaultMinPoints}
}

// Rejection explains why a row was left out of the candidate list.
type Rejection struct {
	Line   int
	Reason string
}

// Filter applies rules to rows and returns eligible candidates in input order.
func Filter(rows []Row, rules Rules) ([]Candidate, []Rejection) {
	eligible := make([]Candidate, 0, len(rows))
	var rejected []Rejection

	for _, row := range rows {
		points, err := parsePoints(row.Points)
		if err != nil {
			rejected = append(rejected, Rejection{Line: row.Line, Reason: fmt.Sprintf("invalid points %q", row.Points)})
			continue
		}
		if points < rules.MinPoints {
			rejected = append(rejected, Rejection{Line: row.Line, Reason: fmt.Sprintf("points %d below minimum %d", points, rules.MinPoints)})
			continue
		}
		accountID := account.Normalize(row.Account)
		if err := account.Validate(accountID); err != nil {
			rejected = append(rejected, Rejection{Line: row.Line, Reason: err.Error()})
			continue
		}

		eligible = append(eligible, Candidate{
			Points:    points,
			Handle:    strings.TrimPrefix(strings.TrimSpace(row.Handle), "@"),
			AccountID: accountID,
		})
	}

	return eligible, rejected
}

// parsePoints reads the leading integer of a points cell, so "70.0" and
// "70 pts" both score 70. An optional sign and a 0x hex prefix are accepted.
func parsePoints(cell string) (int, error) {
	s := strings.TrimSpace(cell)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	base, isDigit := 10, isDecimal
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && isHex(s[2]) {
		base, isDigit, s = 16, isHex, s[2:]
	}
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("no leading integer in %q", cell)
	}
	n, err := strconv.ParseInt(sign+s[:end], base, 0)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func isDecimal(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Digest returns a hex blake2b-256 fingerprint of the ordered candidate list.
func Digest(candidates []Candidate) string {
	h, _ := blake2b.New256(nil)
	for _, c := range candidates {
		h.Write([]byte(strconv.Itoa(c.Points)))
		h.Write([]byte{0x1f})
		h.Write([]byte(c.Handle))
		h.Write([]byte{0x1f})
		h.Write([]byte(c.AccountID))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
