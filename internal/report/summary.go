package report

import (
	"fmt"
	"io"

	"github.com/louisbranch/fairdraw/internal/account"
	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/montanaflynn/stats"
)

// Summary describes a finished draw for console output and the workbook.
type Summary struct {
	BlockHash string
	Eligible  int
	// DistinctAccounts counts eligible entries by public key, so an account
	// entered under several encodings counts once.
	DistinctAccounts int
	Winners          int
	Draws            uint64
	Rejected         uint64
	PoolPoints       PointStats
	WinnerPoints     PointStats
}

// PointStats summarizes the points of a group of candidates.
type PointStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize builds a Summary for a draw over eligible.
func Summarize(eligible []contest.Candidate, results Results) Summary {
	return Summary{
		BlockHash:        results.BlockHash,
		Eligible:         len(eligible),
		DistinctAccounts: distinctAccounts(eligible),
		Winners:          len(results.Draw.Entries),
		Draws:            results.Draw.Draws,
		Rejected:         results.Draw.Rejected(),
		PoolPoints:       pointStats(eligible),
		WinnerPoints:     pointStats(results.Draw.Records()),
	}
}

// Print writes a human-readable summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Block hash:        %s\n", s.BlockHash)
	fmt.Fprintf(w, "Eligible:          %d\n", s.Eligible)
	fmt.Fprintf(w, "Distinct accounts: %d\n", s.DistinctAccounts)
	fmt.Fprintf(w, "Winners:           %d\n", s.Winners)
	fmt.Fprintf(w, "Raw draws:         %d (%d duplicates discarded)\n", s.Draws, s.Rejected)
	fmt.Fprintf(w, "Pool points:       mean %.2f median %.2f range %.0f-%.0f\n", s.PoolPoints.Mean, s.PoolPoints.Median, s.PoolPoints.Min, s.PoolPoints.Max)
	fmt.Fprintf(w, "Winner points:     mean %.2f median %.2f range %.0f-%.0f\n", s.WinnerPoints.Mean, s.WinnerPoints.Median, s.WinnerPoints.Min, s.WinnerPoints.Max)
}

func pointStats(candidates []contest.Candidate) PointStats {
	if len(candidates) == 0 {
		return PointStats{}
	}
	data := make(stats.Float64Data, len(candidates))
	for i, c := range candidates {
		data[i] = float64(c.Points)
	}
	// Errors only occur on empty input, handled above.
	mean, _ := data.Mean()
	median, _ := data.Median()
	lo, _ := data.Min()
	hi, _ := data.Max()
	return PointStats{Mean: mean, Median: median, Min: lo, Max: hi}
}

// distinctAccounts keys candidates by public key. Ids that do not decode are
// keyed by their text.
func distinctAccounts(candidates []contest.Candidate) int {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := c.AccountID
		if pk, err := account.PublicKey(c.AccountID); err == nil {
			key = string(pk)
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
