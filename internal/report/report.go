// Package report writes draw outcomes in the formats auditors consume.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/louisbranch/fairdraw/internal/core/draw"
)

// Results is the published outcome of a draw.
type Results struct {
	BlockHash string
	Draw      draw.Result[contest.Candidate]
}

type resultsDocument struct {
	BlockHash     string              `json:"blockHash"`
	RandomNumbers []string            `json:"randomNumbers"`
	RandomIndices []int               `json:"randomIndices"`
	RandomWinners []contest.Candidate `json:"randomWinners"`
}

// WriteEligibleJSON writes the filtered candidate list as indented JSON.
func WriteEligibleJSON(w io.Writer, candidates []contest.Candidate) error {
	if candidates == nil {
		candidates = []contest.Candidate{}
	}
	return writeJSON(w, candidates)
}

// WriteResultsJSON writes the block hash, accepted values, indices, and
// winners. Values are decimal strings so 64-bit numbers survive parsers
// that only have float64.
func WriteResultsJSON(w io.Writer, results Results) error {
	values := results.Draw.Values()
	numbers := make([]string, len(values))
	for i, v := range values {
		numbers[i] = strconv.FormatUint(v, 10)
	}
	doc := resultsDocument{
		BlockHash:     results.BlockHash,
		RandomNumbers: numbers,
		RandomIndices: results.Draw.Indices(),
		RandomWinners: results.Draw.Records(),
	}
	return writeJSON(w, doc)
}

// WriteAccounts writes one winner account id per line in draw order.
func WriteAccounts(w io.Writer, winners []contest.Candidate) error {
	ids := make([]string, len(winners))
	for i, c := range winners {
		ids[i] = c.AccountID
	}
	if _, err := io.WriteString(w, strings.Join(ids, "\n")); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
