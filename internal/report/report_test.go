package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/fairdraw/internal/contest"
	"github.com/louisbranch/fairdraw/internal/core/draw"
	"github.com/xuri/excelize/v2"
)

func sampleResults() ([]contest.Candidate, Results) {
	pool := []contest.Candidate{
		{Points: 70, Handle: "alice", AccountID: "acc-a"},
		{Points: 90, Handle: "bob", AccountID: "acc-b"},
		{Points: 100, Handle: "carol", AccountID: "acc-c"},
	}
	return pool, Results{
		BlockHash: "0xabcd",
		Draw: draw.Result[contest.Candidate]{
			Entries: []draw.Entry[contest.Candidate]{
				{Value: 18444043148616382730, Index: 2, Record: pool[2]},
				{Value: 4, Index: 1, Record: pool[1]},
			},
			Draws: 5,
		},
	}
}

func TestWriteResultsJSON(t *testing.T) {
	_, results := sampleResults()

	var buf bytes.Buffer
	if err := WriteResultsJSON(&buf, results); err != nil {
		t.Fatalf("WriteResultsJSON() error = %v", err)
	}

	var doc struct {
		BlockHash     string              `json:"blockHash"`
		RandomNumbers []string            `json:"randomNumbers"`
		RandomIndices []int               `json:"randomIndices"`
		RandomWinners []contest.Candidate `json:"randomWinners"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.BlockHash != "0xabcd" {
		t.Fatalf("blockHash = %q", doc.BlockHash)
	}
	if len(doc.RandomNumbers) != 2 || doc.RandomNumbers[0] != "18444043148616382730" {
		t.Fatalf("randomNumbers = %v", doc.RandomNumbers)
	}
	if len(doc.RandomIndices) != 2 || doc.RandomIndices[0] != 2 || doc.RandomIndices[1] != 1 {
		t.Fatalf("randomIndices = %v", doc.RandomIndices)
	}
	if doc.RandomWinners[0].Handle != "carol" || doc.RandomWinners[1].AccountID != "acc-b" {
		t.Fatalf("randomWinners = %+v", doc.RandomWinners)
	}
	if !strings.Contains(buf.String(), `"twitter": "carol"`) {
		t.Fatalf("expected original field names in %s", buf.String())
	}
}

func TestWriteAccounts(t *testing.T) {
	_, results := sampleResults()

	var buf bytes.Buffer
	if err := WriteAccounts(&buf, results.Draw.Records()); err != nil {
		t.Fatalf("WriteAccounts() error = %v", err)
	}
	if buf.String() != "acc-c\nacc-b" {
		t.Fatalf("WriteAccounts() = %q", buf.String())
	}
}

func TestWriteEligibleJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEligibleJSON(&buf, nil); err != nil {
		t.Fatalf("WriteEligibleJSON() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("WriteEligibleJSON(nil) = %q, want []", buf.String())
	}
}

func TestSummarize(t *testing.T) {
	pool, results := sampleResults()
	s := Summarize(pool, results)

	if s.Eligible != 3 || s.DistinctAccounts != 3 || s.Winners != 2 || s.Draws != 5 || s.Rejected != 3 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.PoolPoints.Median != 90 || s.PoolPoints.Min != 70 || s.PoolPoints.Max != 100 {
		t.Fatalf("unexpected pool stats %+v", s.PoolPoints)
	}
	if s.WinnerPoints.Mean != 95 {
		t.Fatalf("winner mean = %v, want 95", s.WinnerPoints.Mean)
	}

	var buf bytes.Buffer
	s.Print(&buf)
	if !strings.Contains(buf.String(), "3 duplicates discarded") {
		t.Fatalf("unexpected summary output:\n%s", buf.String())
	}

	if empty := Summarize(nil, Results{}); empty.PoolPoints != (PointStats{}) {
		t.Fatalf("expected zero stats for empty pool, got %+v", empty.PoolPoints)
	}
}

func TestSummarize_DistinctAccountsAcrossEncodings(t *testing.T) {
	const (
		aliceGeneric   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
		aliceSubsocial = "3sqiJgebhvHQqGbVUQJ5XbnV2KCmTrUXjUwgapcAKJwVyU7u"
		aliceHex       = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	)
	pool := []contest.Candidate{
		{Points: 70, Handle: "a", AccountID: aliceGeneric},
		{Points: 80, Handle: "b", AccountID: aliceSubsocial},
		{Points: 90, Handle: "c", AccountID: aliceHex},
		{Points: 95, Handle: "d", AccountID: "acc-d"},
	}
	s := Summarize(pool, Results{})
	if s.Eligible != 4 || s.DistinctAccounts != 2 {
		t.Fatalf("eligible = %d distinct = %d, want 4 and 2", s.Eligible, s.DistinctAccounts)
	}
}

func TestWriteWorkbook(t *testing.T) {
	pool, results := sampleResults()
	path := filepath.Join(t.TempDir(), "winners.xlsx")

	if err := WriteWorkbook(path, results, Summarize(pool, results)); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(winnersSheet)
	if err != nil {
		t.Fatalf("read winners: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d winner rows, want 3", len(rows))
	}
	if rows[1][1] != "18444043148616382730" || rows[1][5] != "acc-c" {
		t.Fatalf("unexpected first winner row %v", rows[1])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if summary[0][1] != "0xabcd" || summary[2][0] != "Distinct accounts" || summary[2][1] != "3" {
		t.Fatalf("unexpected summary %v", summary)
	}
}
