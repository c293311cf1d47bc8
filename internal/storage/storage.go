package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/louisbranch/fairdraw/internal/core/draw"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a run id was already recorded.
	ErrAlreadyExists = errors.New("record already exists")
)

// EntryRecord is one accepted draw of a run.
type EntryRecord struct {
	Position  int
	Value     uint64
	Index     int
	AccountID string
}

// RunRecord is a complete, replayable draw.
type RunRecord struct {
	ID              string
	BlockHash       string
	MinPoints       int
	WinnerCount     int
	Draws           uint64
	CandidateDigest string
	CreatedAt       time.Time
	Candidates      []contest.Candidate
	Entries         []EntryRecord
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID             string
	BlockHash      string
	WinnerCount    int
	CandidateCount int
	CreatedAt      time.Time
}

// RunStore persists draw runs.
type RunStore interface {
	PutRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// NewRunRecord builds a record with a fresh id for a finished draw.
func NewRunRecord(blockHash string, rules contest.Rules, candidates []contest.Candidate, result draw.Result[contest.Candidate], now time.Time) RunRecord {
	entries := make([]EntryRecord, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = EntryRecord{
			Position:  i,
			Value:     e.Value,
			Index:     e.Index,
			AccountID: e.Record.AccountID,
		}
	}
	return RunRecord{
		ID:              uuid.NewString(),
		BlockHash:       blockHash,
		MinPoints:       rules.MinPoints,
		WinnerCount:     len(result.Entries),
		Draws:           result.Draws,
		CandidateDigest: contest.Digest(candidates),
		CreatedAt:       now.UTC(),
		Candidates:      append([]contest.Candidate(nil), candidates...),
		Entries:         entries,
	}
}
