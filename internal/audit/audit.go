// Package audit replays recorded draws and reports any divergence.
//
// A replay rebuilds the generator from the stored block hash, reselects the
// recorded number of winners from the stored candidate list, and compares the
// outcome position by position. Each replay owns its generator, so replays may
// run concurrently.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/fairdraw/internal/blockhash"
	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/louisbranch/fairdraw/internal/core/draw"
	"github.com/louisbranch/fairdraw/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/louisbranch/fairdraw/internal/audit"

// ErrReplayMismatch indicates a replay that did not reproduce the record.
var ErrReplayMismatch = errors.New("replay does not match recorded run")

// Mismatch describes one divergence between the record and the replay.
type Mismatch struct {
	Position int    `json:"position"`
	Field    string `json:"field"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// Verdict is the outcome of a replay.
type Verdict struct {
	RunID      string     `json:"runId"`
	Match      bool       `json:"match"`
	Draws      uint64     `json:"draws"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
	// Error is set by ReplayAll for a run that could not be replayed.
	Error string `json:"error,omitempty"`
}

// Replay re-executes run and compares it with the recorded outcome. An error
// is returned only when the replay cannot be executed at all. opts are passed
// to draw.Select, so draw.WithMaxDraws bounds a replay of a tampered record.
func Replay(ctx context.Context, run storage.RunRecord, opts ...draw.Option) (Verdict, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "audit.Replay")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("run.block_hash", run.BlockHash),
		attribute.Int("run.winners", run.WinnerCount),
		attribute.Int("run.candidates", len(run.Candidates)),
	)

	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	hash, err := blockhash.Parse(run.BlockHash)
	if err != nil {
		span.RecordError(err)
		return Verdict{}, fmt.Errorf("replay run %s: %w", run.ID, err)
	}
	gen, err := hash.Generator()
	if err != nil {
		span.RecordError(err)
		return Verdict{}, fmt.Errorf("replay run %s: %w", run.ID, err)
	}
	result, err := draw.Select(gen, run.Candidates, run.WinnerCount, opts...)
	if err != nil {
		span.RecordError(err)
		return Verdict{}, fmt.Errorf("replay run %s: %w", run.ID, err)
	}

	verdict := Verdict{RunID: run.ID, Draws: result.Draws}
	verdict.Mismatches = compare(run, result)
	verdict.Match = len(verdict.Mismatches) == 0
	if !verdict.Match {
		span.SetStatus(codes.Error, "replay mismatch")
	}
	span.SetAttributes(attribute.Bool("replay.match", verdict.Match))
	return verdict, nil
}

// Verify is Replay that reports a mismatch as ErrReplayMismatch.
func Verify(ctx context.Context, run storage.RunRecord, opts ...draw.Option) (Verdict, error) {
	verdict, err := Replay(ctx, run, opts...)
	if err != nil {
		return Verdict{}, err
	}
	if !verdict.Match {
		return verdict, fmt.Errorf("%w: run %s has %d mismatches", ErrReplayMismatch, run.ID, len(verdict.Mismatches))
	}
	return verdict, nil
}

func compare(run storage.RunRecord, result draw.Result[contest.Candidate]) []Mismatch {
	var mismatches []Mismatch

	if digest := contest.Digest(run.Candidates); run.CandidateDigest != "" && digest != run.CandidateDigest {
		mismatches = append(mismatches, Mismatch{Position: -1, Field: "candidateDigest", Recorded: run.CandidateDigest, Replayed: digest})
	}
	if run.Draws != 0 && run.Draws != result.Draws {
		mismatches = append(mismatches, Mismatch{Position: -1, Field: "draws", Recorded: fmt.Sprint(run.Draws), Replayed: fmt.Sprint(result.Draws)})
	}
	if len(run.Entries) != len(result.Entries) {
		mismatches = append(mismatches, Mismatch{Position: -1, Field: "entries", Recorded: fmt.Sprint(len(run.Entries)), Replayed: fmt.Sprint(len(result.Entries))})
	}

	n := min(len(run.Entries), len(result.Entries))
	for i := 0; i < n; i++ {
		recorded, replayed := run.Entries[i], result.Entries[i]
		if recorded.Value != replayed.Value {
			mismatches = append(mismatches, Mismatch{Position: i, Field: "value", Recorded: fmt.Sprint(recorded.Value), Replayed: fmt.Sprint(replayed.Value)})
		}
		if recorded.Index != replayed.Index {
			mismatches = append(mismatches, Mismatch{Position: i, Field: "index", Recorded: fmt.Sprint(recorded.Index), Replayed: fmt.Sprint(replayed.Index)})
		}
		if recorded.AccountID != replayed.Record.AccountID {
			mismatches = append(mismatches, Mismatch{Position: i, Field: "accountId", Recorded: recorded.AccountID, Replayed: replayed.Record.AccountID})
		}
	}
	return mismatches
}

// ReplayAll replays runs with at most workers replays in flight. Verdicts
// are returned in the order of runs. A run that cannot be replayed gets a
// non-matching verdict carrying the error, and the others still run. Only
// cancellation of ctx aborts the batch.
func ReplayAll(ctx context.Context, runs []storage.RunRecord, workers int, opts ...draw.Option) ([]Verdict, error) {
	if workers <= 0 {
		workers = 1
	}
	verdicts := make([]Verdict, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range runs {
		i := i
		g.Go(func() error {
			v, err := Replay(gctx, runs[i], opts...)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				v = Verdict{RunID: runs[i].ID, Error: err.Error()}
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}
