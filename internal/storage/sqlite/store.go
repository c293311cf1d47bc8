// Package sqlite provides a SQLite-backed draw ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/fairdraw/internal/contest"
	sqlitemigrate "github.com/louisbranch/fairdraw/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/fairdraw/internal/storage"
	"github.com/louisbranch/fairdraw/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists draw runs in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ledger at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRun records a run, its candidate list, and its accepted draws in one
// transaction.
func (s *Store) PutRun(ctx context.Context, run storage.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(run.ID)
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(run.BlockHash) == "" {
		return fmt.Errorf("block hash is required")
	}
	if run.WinnerCount != len(run.Entries) {
		return fmt.Errorf("winner count %d does not match %d entries", run.WinnerCount, len(run.Entries))
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, block_hash, min_points, winner_count, draws, candidate_digest, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(run.BlockHash),
		run.MinPoints,
		run.WinnerCount,
		strconv.FormatUint(run.Draws, 10),
		run.CandidateDigest,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put run: %w", err)
	}

	for i, c := range run.Candidates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_candidates (run_id, position, points, handle, account_id) VALUES (?, ?, ?, ?, ?)`,
			id, i, c.Points, c.Handle, c.AccountID,
		); err != nil {
			return fmt.Errorf("put run candidate %d: %w", i, err)
		}
	}
	for _, e := range run.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_entries (run_id, position, value, candidate_index, account_id) VALUES (?, ?, ?, ?, ?)`,
			id, e.Position, strconv.FormatUint(e.Value, 10), e.Index, e.AccountID,
		); err != nil {
			return fmt.Errorf("put run entry %d: %w", e.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put run: %w", err)
	}
	return nil
}

// GetRun loads a complete run by id.
func (s *Store) GetRun(ctx context.Context, id string) (storage.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RunRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RunRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.RunRecord{}, fmt.Errorf("run id is required")
	}

	var (
		run       storage.RunRecord
		draws     string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, block_hash, min_points, winner_count, draws, candidate_digest, created_at
		   FROM runs
		  WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.BlockHash, &run.MinPoints, &run.WinnerCount, &draws, &run.CandidateDigest, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RunRecord{}, storage.ErrNotFound
		}
		return storage.RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	if run.Draws, err = strconv.ParseUint(draws, 10, 64); err != nil {
		return storage.RunRecord{}, fmt.Errorf("parse run draws: %w", err)
	}
	run.CreatedAt = fromMillis(createdAt)

	if run.Candidates, err = s.loadCandidates(ctx, id); err != nil {
		return storage.RunRecord{}, err
	}
	if run.Entries, err = s.loadEntries(ctx, id); err != nil {
		return storage.RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT r.id, r.block_hash, r.winner_count, r.created_at,
		        (SELECT COUNT(*) FROM run_candidates c WHERE c.run_id = r.id)
		   FROM runs r
		  ORDER BY r.created_at DESC, r.id ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]storage.RunSummary, 0, limit)
	for rows.Next() {
		var (
			summary   storage.RunSummary
			createdAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.BlockHash, &summary.WinnerCount, &createdAt, &summary.CandidateCount); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		summary.CreatedAt = fromMillis(createdAt)
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) loadCandidates(ctx context.Context, runID string) ([]contest.Candidate, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT points, handle, account_id FROM run_candidates WHERE run_id = ? ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load run candidates: %w", err)
	}
	defer rows.Close()

	var candidates []contest.Candidate
	for rows.Next() {
		var c contest.Candidate
		if err := rows.Scan(&c.Points, &c.Handle, &c.AccountID); err != nil {
			return nil, fmt.Errorf("load run candidates: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load run candidates: %w", err)
	}
	return candidates, nil
}

func (s *Store) loadEntries(ctx context.Context, runID string) ([]storage.EntryRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT position, value, candidate_index, account_id FROM run_entries WHERE run_id = ? ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load run entries: %w", err)
	}
	defer rows.Close()

	var entries []storage.EntryRecord
	for rows.Next() {
		var (
			e     storage.EntryRecord
			value string
		)
		if err := rows.Scan(&e.Position, &value, &e.Index, &e.AccountID); err != nil {
			return nil, fmt.Errorf("load run entries: %w", err)
		}
		if e.Value, err = strconv.ParseUint(value, 10, 64); err != nil {
			return nil, fmt.Errorf("parse entry %d value: %w", e.Position, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load run entries: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed: runs.id")
}

var _ storage.RunStore = (*Store)(nil)
