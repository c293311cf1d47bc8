package auditserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/louisbranch/fairdraw/internal/audit"
	"github.com/louisbranch/fairdraw/internal/blockhash"
	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/louisbranch/fairdraw/internal/core/draw"
	"github.com/louisbranch/fairdraw/internal/core/xorshift"
	apperrors "github.com/louisbranch/fairdraw/internal/platform/errors"
	"github.com/louisbranch/fairdraw/internal/storage"
)

type runSummaryView struct {
	ID         string    `json:"id"`
	BlockHash  string    `json:"blockHash"`
	Winners    int       `json:"winners"`
	Candidates int       `json:"candidates"`
	CreatedAt  time.Time `json:"createdAt"`
}

type entryView struct {
	Position  int    `json:"position"`
	Value     string `json:"value"`
	Index     int    `json:"index"`
	AccountID string `json:"accountId"`
}

type runView struct {
	ID              string              `json:"id"`
	BlockHash       string              `json:"blockHash"`
	MinPoints       int                 `json:"minPoints"`
	Winners         int                 `json:"winners"`
	Draws           string              `json:"draws"`
	CandidateDigest string              `json:"candidateDigest"`
	CreatedAt       time.Time           `json:"createdAt"`
	Candidates      []contest.Candidate `json:"candidates"`
	Entries         []entryView         `json:"entries"`
}

func newRunView(run storage.RunRecord) runView {
	entries := make([]entryView, len(run.Entries))
	for i, e := range run.Entries {
		entries[i] = entryView{
			Position:  e.Position,
			Value:     strconv.FormatUint(e.Value, 10),
			Index:     e.Index,
			AccountID: e.AccountID,
		}
	}
	candidates := run.Candidates
	if candidates == nil {
		candidates = []contest.Candidate{}
	}
	return runView{
		ID:              run.ID,
		BlockHash:       run.BlockHash,
		MinPoints:       run.MinPoints,
		Winners:         run.WinnerCount,
		Draws:           strconv.FormatUint(run.Draws, 10),
		CandidateDigest: run.CandidateDigest,
		CreatedAt:       run.CreatedAt,
		Candidates:      candidates,
		Entries:         entries,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, storeError(err, ""))
		return
	}
	views := make([]runSummaryView, len(runs))
	for i, run := range runs {
		views[i] = runSummaryView{
			ID:         run.ID,
			BlockHash:  run.BlockHash,
			Winners:    run.WinnerCount,
			Candidates: run.CandidateCount,
			CreatedAt:  run.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.loadRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunView(run))
}

func (s *Server) handleVerifyRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.loadRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	verdict, err := audit.Replay(r.Context(), run, s.replayOptions()...)
	if err != nil {
		writeError(w, replayError(err, run.ID))
		return
	}
	status := http.StatusOK
	if !verdict.Match {
		status = apperrors.CodeReplayMismatch.HTTPStatus()
	}
	writeJSON(w, status, verdict)
}

// handleVerifyRecent replays the most recent runs and reports every verdict.
func (s *Server) handleVerifyRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, storeError(err, ""))
		return
	}
	runs := make([]storage.RunRecord, 0, len(summaries))
	for _, summary := range summaries {
		run, err := s.loadRun(r.Context(), summary.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		runs = append(runs, run)
	}
	verdicts, err := audit.ReplayAll(r.Context(), runs, s.workers, s.replayOptions()...)
	if err != nil {
		writeError(w, replayError(err, ""))
		return
	}
	if verdicts == nil {
		verdicts = []audit.Verdict{}
	}
	status := http.StatusOK
	for _, v := range verdicts {
		if !v.Match {
			status = apperrors.CodeReplayMismatch.HTTPStatus()
			break
		}
	}
	writeJSON(w, status, verdicts)
}

func (s *Server) replayOptions() []draw.Option {
	if s.maxDraws == 0 {
		return nil
	}
	return []draw.Option{draw.WithMaxDraws(s.maxDraws)}
}

func (s *Server) loadRun(ctx context.Context, id string) (storage.RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.RunRecord{}, apperrors.New(apperrors.CodeRunIDEmpty, "run id is required")
	}
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return storage.RunRecord{}, storeError(err, id)
	}
	return run, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidLimit, "limit must be between 1 and "+strconv.Itoa(maxListLimit), map[string]string{"limit": raw})
	}
	return limit, nil
}

func storeError(err error, runID string) error {
	var metadata map[string]string
	if runID != "" {
		metadata = map[string]string{"run_id": runID}
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &apperrors.Error{Code: apperrors.CodeNotFound, Message: "run not found", Metadata: metadata, Cause: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &apperrors.Error{Code: apperrors.CodeReplayCanceled, Message: "request canceled", Metadata: metadata, Cause: err}
	default:
		return &apperrors.Error{Code: apperrors.CodeStoreUnavailable, Message: "run store unavailable", Metadata: metadata, Cause: err}
	}
}

func replayError(err error, runID string) error {
	var metadata map[string]string
	if runID != "" {
		metadata = map[string]string{"run_id": runID}
	}
	code := apperrors.CodeUnknown
	message := "replay failed"
	switch {
	case errors.Is(err, blockhash.ErrInvalidHash), errors.Is(err, xorshift.ErrInvalidSeed):
		code, message = apperrors.CodeInvalidBlockHash, "stored block hash is invalid"
	case errors.Is(err, draw.ErrInsufficientCandidates), errors.Is(err, draw.ErrInvalidCount):
		code, message = apperrors.CodeInsufficientCandidates, "stored candidates cannot fill the recorded winners"
	case errors.Is(err, draw.ErrDrawLimitExceeded):
		code, message = apperrors.CodeDrawLimitExceeded, "replay exceeded the draw limit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, message = apperrors.CodeReplayCanceled, "replay canceled"
	}
	return &apperrors.Error{Code: code, Message: message, Metadata: metadata, Cause: err}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	domainErr := apperrors.As(err)
	if domainErr.Code == apperrors.CodeUnknown || domainErr.Code == apperrors.CodeStoreUnavailable {
		log.Printf("audit api: %s: %v", domainErr.Message, domainErr.Cause)
	}
	writeJSON(w, domainErr.Code.HTTPStatus(), domainErr.Body())
}
